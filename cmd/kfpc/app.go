package main

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/askiada/go-kfp/internal/config"
	"github.com/askiada/go-kfp/internal/ctxlog"
	"github.com/askiada/go-kfp/pkg/babyweight"
	"github.com/askiada/go-kfp/pkg/pipeline"
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

// env is the runtime shared by the commands.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	stdout io.Writer
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "kfpc"
	app.Usage = "compile the babyweight training pipeline"
	app.Version = babyweight.DefaultVersion
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "Path to a YAML configuration file",
			EnvVar: "KFP_CONFIG",
		},
		cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a dotenv file with KFP_ variables",
			Value: config.DefaultDotEnv,
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
		},
		cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format (text or json)",
		},
	}
	app.Commands = []cli.Command{
		compileCommand(stdout, stderr),
		graphCommand(stdout, stderr),
		describeCommand(stdout, stderr),
		publishCommand(stdout, stderr),
	}

	return app
}

func startStepFlag() cli.IntFlag {
	return cli.IntFlag{
		Name:  "start-step",
		Usage: "First stage to run (1 to 6), earlier stages use canned outputs",
	}
}

// setup loads the configuration, applies the command line on top of it and
// attaches the logger to the returned env.
func setup(c *cli.Context, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(c.GlobalString("config"), c.GlobalString("env-file"))
	if err != nil {
		return nil, err
	}

	if c.GlobalIsSet("log-level") {
		cfg.Log.Level = c.GlobalString("log-level")
	}

	if c.GlobalIsSet("log-format") {
		cfg.Log.Format = c.GlobalString("log-format")
	}

	if c.IsSet("start-step") {
		cfg.StartStep = c.Int("start-step")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	logger, err := ctxlog.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	return &env{
		ctx:    ctxlog.WithLogger(context.Background(), logger),
		cfg:    cfg,
		stdout: stdout,
	}, nil
}

func (e *env) build(opts ...model.PipelineOption) (*pipeline.Pipeline, *babyweight.Results, error) {
	buildOpts := e.cfg.BuildOptions()
	buildOpts.PipelineOptions = opts

	pipe, results, err := babyweight.Build(e.ctx, buildOpts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to build pipeline")
	}

	return pipe, results, nil
}
