package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-kfp/internal/ctxlog"
	"github.com/askiada/go-kfp/internal/publish"
	"github.com/askiada/go-kfp/pkg/babyweight"
	"github.com/askiada/go-kfp/pkg/pipeline"
	"github.com/askiada/go-kfp/pkg/pipeline/compiler"
	"github.com/askiada/go-kfp/pkg/pipeline/drawer"
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

var ErrInvalidParam = errors.New("invalid parameter value, want name=value")

func compileCommand(stdout, stderr io.Writer) cli.Command {
	return cli.Command{
		Name:  "compile",
		Usage: "Compile the pipeline into a workflow archive",
		Flags: []cli.Flag{
			startStepFlag(),
			cli.StringFlag{
				Name:  "output, o",
				Usage: "Path of the archive (default babyweight.tar.gz)",
			},
			cli.StringFlag{
				Name:  "manifest",
				Usage: "Also write the workflow manifest as YAML to this path",
			},
			cli.StringFlag{
				Name:  "graph",
				Usage: "Also write the pipeline graph in DOT format to this path",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c, stdout, stderr)
			if err != nil {
				return err
			}

			if c.IsSet("output") {
				e.cfg.Output.Archive = c.String("output")
			}

			if c.IsSet("manifest") {
				e.cfg.Output.Manifest = c.String("manifest")
			}

			if c.IsSet("graph") {
				e.cfg.Output.Graph = c.String("graph")
			}

			return e.compile()
		},
	}
}

func (e *env) compile() error {
	var opts []model.PipelineOption
	if e.cfg.Output.Graph != "" {
		opts = append(opts, drawer.PipelineDrawer(drawer.NewDOTDrawer(e.cfg.Output.Graph)))
	}

	pipe, results, err := e.build(opts...)
	if err != nil {
		return err
	}

	// the graph is drawn when Compile seals the pipeline
	wf, err := compiler.Compile(pipe)
	if err != nil {
		return err
	}

	var g errgroup.Group

	g.Go(func() error {
		return writeArchive(e.cfg.Output.Archive, wf)
	})

	if e.cfg.Output.Manifest != "" {
		g.Go(func() error {
			data, err := compiler.Marshal(wf)
			if err != nil {
				return err
			}

			err = os.WriteFile(e.cfg.Output.Manifest, data, 0o644) //nolint:gosec
			if err != nil {
				return errors.Wrapf(err, "unable to write manifest %s", e.cfg.Output.Manifest)
			}

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		return err
	}

	ctxlog.FromContext(e.ctx).Info("pipeline compiled",
		"archive", e.cfg.Output.Archive,
		"manifest", e.cfg.Output.Manifest,
		"graph", e.cfg.Output.Graph,
		"steps", len(results.Executed()),
	)

	fmt.Fprintf(e.stdout, "%s: %d of %d stages compiled to %s\n",
		pipe.Name(), len(results.Executed()), len(babyweight.Stages()), e.cfg.Output.Archive)

	return nil
}

func writeArchive(fileName string, wf *compiler.Workflow) (err error) {
	file, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create archive %s", fileName)
	}

	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrapf(closeErr, "unable to close archive %s", fileName)
		}
	}()

	return compiler.WriteArchive(file, wf)
}

func graphCommand(stdout, stderr io.Writer) cli.Command {
	return cli.Command{
		Name:  "graph",
		Usage: "Print the pipeline graph in DOT format",
		Flags: []cli.Flag{
			startStepFlag(),
			cli.StringFlag{
				Name:  "output, o",
				Usage: "Write the graph to this path instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c, stdout, stderr)
			if err != nil {
				return err
			}

			d := drawer.NewDOTWriterDrawer(stdout)
			if c.IsSet("output") {
				d = drawer.NewDOTDrawer(c.String("output"))
			}

			pipe, _, err := e.build(drawer.PipelineDrawer(d))
			if err != nil {
				return err
			}

			return errors.Wrap(pipe.Seal(), "unable to draw pipeline")
		},
	}
}

func describeCommand(stdout, stderr io.Writer) cli.Command {
	return cli.Command{
		Name:  "describe",
		Usage: "List the stages with their image and command line",
		Flags: []cli.Flag{
			startStepFlag(),
			cli.StringSliceFlag{
				Name:  "param, p",
				Usage: "Render with this parameter value (name=value), repeatable",
			},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c, stdout, stderr)
			if err != nil {
				return err
			}

			values, err := parseParams(c.StringSlice("param"))
			if err != nil {
				return err
			}

			return e.describe(values)
		},
	}
}

func parseParams(raw []string) (map[string]string, error) {
	values := make(map[string]string, len(raw))

	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, errors.Wrapf(ErrInvalidParam, "%q", kv)
		}

		values[name] = value
	}

	return values, nil
}

func (e *env) describe(values map[string]string) error {
	pipe, results, err := e.build()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "STAGE\tNAME\tSTATUS\tIMAGE\tARGS\n")

	for _, stage := range babyweight.Stages() {
		step, ok := pipe.Step(stage.String())
		if !ok {
			fmt.Fprintf(tw, "%d\t%s\tskipped\t-\t%s\n", stage, stage, cannedValues(results.Stage(stage)))

			continue
		}

		args, err := pipe.RenderArgs(step, pipeline.WithParameterValues(values))
		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "%d\t%s\trun\t%s\t%s\n", stage, stage, step.Image(), strings.Join(args, " "))
	}

	return errors.Wrap(tw.Flush(), "unable to write description")
}

func cannedValues(out model.StepOutput) string {
	names := out.Names()
	pairs := make([]string, 0, len(names))

	for _, name := range names {
		value, err := out.Get(name)
		if err != nil {
			continue
		}

		pairs = append(pairs, name+"="+value.String())
	}

	return strings.Join(pairs, " ")
}

func publishCommand(stdout, stderr io.Writer) cli.Command {
	return cli.Command{
		Name:  "publish",
		Usage: "Compile the pipeline and upload the archive to S3 compatible storage",
		Flags: []cli.Flag{
			startStepFlag(),
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c, stdout, stderr)
			if err != nil {
				return err
			}

			pub, err := publish.New(e.cfg.Publish)
			if err != nil {
				return err
			}

			return e.publish(pub)
		},
	}
}

func (e *env) publish(pub *publish.Publisher) error {
	pipe, _, err := e.build()
	if err != nil {
		return err
	}

	data, err := compiler.CompileArchive(pipe)
	if err != nil {
		return err
	}

	obj, err := pub.Publish(e.ctx, pipe.Name(), pipe.Version(), data)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.stdout, "published s3://%s/%s (%d bytes)\n", obj.Bucket, obj.Key, obj.Size)

	return nil
}
