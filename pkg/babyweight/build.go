package babyweight

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/internal/ctxlog"
	"github.com/askiada/go-kfp/pkg/pipeline"
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

var ErrInvalidStartStep = errors.New("start step out of range")

type builder struct {
	pipe      *pipeline.Pipeline
	opts      Options
	project   model.ParamRef
	bucket    model.ParamRef
	startYear model.ParamRef
	results   *Results
}

type stageFn func(b *builder) (model.StepOutput, error)

// Build assembles the pipeline. Stages before opts.StartStep are bound to
// their canned outputs and recorded as skipped on the pipeline.
func Build(ctx context.Context, opts Options) (*pipeline.Pipeline, *Results, error) {
	if opts.StartStep < int(FirstStage) || opts.StartStep > SkipAll {
		return nil, nil, errors.Wrapf(ErrInvalidStartStep, "got %d, want %d to %d", opts.StartStep, FirstStage, SkipAll)
	}

	logger := ctxlog.FromContext(ctx).With("pipeline", Name, "start_step", opts.StartStep)

	pipe, err := pipeline.New(model.PipelineInfo{
		Name:        Name,
		Description: Description,
		Version:     opts.Version,
	}, opts.PipelineOptions...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to create pipeline")
	}

	b := &builder{pipe: pipe, opts: opts, results: newResults()}

	err = b.declareParameters()
	if err != nil {
		return nil, nil, err
	}

	canned := CannedOutputs(b.bucket)
	build := map[Stage]stageFn{
		Preprocess:  (*builder).preprocess,
		HyperTrain:  (*builder).hyperTrain,
		TrainTuned:  (*builder).trainTuned,
		DeployModel: (*builder).deployModel,
		DeployApp:   (*builder).deployApp,
	}

	for _, stage := range Stages() {
		if opts.StartStep <= int(stage) {
			out, err := build[stage](b)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "unable to build stage %d (%s)", stage, stage)
			}

			b.results.bind(stage, out)
			logger.Debug("stage added", "stage", stage.String(), "outputs", out.Names())

			continue
		}

		err := pipe.Skip(stage.String(), canned[stage])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to skip stage %d (%s)", stage, stage)
		}

		b.results.bind(stage, canned[stage])
		logger.Debug("stage skipped", "stage", stage.String(), "outputs", canned[stage].Names())
	}

	logger.Info("pipeline assembled", "executed", len(b.results.Executed()), "skipped", len(pipe.Skipped()))

	return pipe, b.results, nil
}

func (b *builder) declareParameters() error {
	var err error

	b.project, err = b.pipe.AddParameter(ParamProject, b.opts.Project)
	if err != nil {
		return err
	}

	b.bucket, err = b.pipe.AddParameter(ParamBucket, b.opts.Bucket)
	if err != nil {
		return err
	}

	b.startYear, err = b.pipe.AddParameter(ParamStartYear, b.opts.StartYear)

	return err
}

// input returns the named output of an earlier stage.
func (b *builder) input(stage Stage, output string) (model.Value, error) {
	out := b.results.Stage(stage)
	if out == nil {
		return nil, errors.Wrapf(pipeline.ErrForwardReference, "stage %s is not bound", stage)
	}

	return out.Get(output)
}

// preprocess creates the training dataset with Apache Beam on Cloud Dataflow.
func (b *builder) preprocess() (model.StepOutput, error) {
	step, err := b.pipe.ContainerOp(model.ContainerSpec{
		Name:  Preprocess.String(),
		Image: b.opts.Images.Preprocess,
		Args: []model.Value{
			model.Literal("--project"), b.project,
			model.Literal("--mode"), model.Literal("cloud"),
			model.Literal("--bucket"), b.bucket,
			model.Literal("--start_year"), b.startYear,
		},
		Outputs: []model.OutputDecl{{Name: OutputBucket, Path: "/output.txt"}},
	})
	if err != nil {
		return nil, err
	}

	return step.Outputs(), nil
}

// hyperTrain tunes the hyperparameters of the model on Cloud ML Engine.
func (b *builder) hyperTrain() (model.StepOutput, error) {
	bucket, err := b.input(Preprocess, OutputBucket)
	if err != nil {
		return nil, err
	}

	step, err := b.pipe.ContainerOp(model.ContainerSpec{
		Name:    HyperTrain.String(),
		Image:   b.opts.Images.HyperTrain,
		Args:    []model.Value{bucket},
		Outputs: []model.OutputDecl{{Name: OutputJobName, Path: "/output.txt"}},
	})
	if err != nil {
		return nil, err
	}

	return step.Outputs(), nil
}

// trainTuned trains the tuned model further on the pipelines cluster.
func (b *builder) trainTuned() (model.StepOutput, error) {
	jobName, err := b.input(HyperTrain, OutputJobName)
	if err != nil {
		return nil, err
	}

	step, err := b.pipe.TFJobLauncher(model.TFJobSpec{
		Name:           TrainTuned.String(),
		ContainerImage: b.opts.Images.Trainer,
		Command: []model.Value{
			model.Literal("bash"),
			model.Literal("/babyweight/src/train.sh"),
			jobName,
			b.bucket,
		},
		Workers:          b.opts.Training.Workers,
		ParameterServers: b.opts.Training.ParameterServers,
		TimeoutMinutes:   b.opts.Training.TimeoutMinutes,
	})
	if err != nil {
		return nil, err
	}

	return step.Outputs(), nil
}

// deployModel deploys the trained model to Cloud ML Engine.
func (b *builder) deployModel() (model.StepOutput, error) {
	modelDir, err := b.input(TrainTuned, OutputTrain)
	if err != nil {
		return nil, err
	}

	step, err := b.pipe.ContainerOp(model.ContainerSpec{
		Name:  DeployModel.String(),
		Image: b.opts.Images.DeployModel,
		Args:  []model.Value{modelDir, model.Literal(ModelName), model.Literal(ModelVersion)},
		Outputs: []model.OutputDecl{
			{Name: OutputModel, Path: "/model.txt"},
			{Name: OutputVersion, Path: "/version.txt"},
		},
	})
	if err != nil {
		return nil, err
	}

	return step.Outputs(), nil
}

// deployApp deploys the web application serving the model.
func (b *builder) deployApp() (model.StepOutput, error) {
	modelName, err := b.input(DeployModel, OutputModel)
	if err != nil {
		return nil, err
	}

	version, err := b.input(DeployModel, OutputVersion)
	if err != nil {
		return nil, err
	}

	step, err := b.pipe.ContainerOp(model.ContainerSpec{
		Name:    DeployApp.String(),
		Image:   b.opts.Images.DeployApp,
		Args:    []model.Value{modelName, version},
		Outputs: []model.OutputDecl{{Name: OutputAppURL, Path: "/appurl.txt"}},
	})
	if err != nil {
		return nil, err
	}

	return step.Outputs(), nil
}
