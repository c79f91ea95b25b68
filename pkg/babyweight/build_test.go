package babyweight_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-kfp/internal/ctxlog"
	"github.com/askiada/go-kfp/pkg/babyweight"
	"github.com/askiada/go-kfp/pkg/pipeline"
	"github.com/askiada/go-kfp/pkg/pipeline/compiler"
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

func build(t *testing.T, startStep int) (*pipeline.Pipeline, *babyweight.Results) {
	t.Helper()

	opts := babyweight.DefaultOptions()
	opts.StartStep = startStep

	pipe, results, err := babyweight.Build(context.Background(), opts)
	require.NoError(t, err)

	return pipe, results
}

func stepOf(t *testing.T, pipe *pipeline.Pipeline, stage babyweight.Stage) *pipeline.Step {
	t.Helper()

	step, ok := pipe.Step(stage.String())
	require.True(t, ok, "stage %s must run", stage)

	return step
}

func TestBuildInvalidStartStep(t *testing.T) {
	t.Parallel()

	for _, startStep := range []int{-1, 0, babyweight.SkipAll + 1} {
		opts := babyweight.DefaultOptions()
		opts.StartStep = startStep

		_, _, err := babyweight.Build(context.Background(), opts)
		assert.ErrorIs(t, err, babyweight.ErrInvalidStartStep, "start step %d", startStep)
	}
}

func TestBuildParameters(t *testing.T) {
	t.Parallel()

	// the whole pipeline runs unless a later start step is asked for
	assert.Equal(t, int(babyweight.FirstStage), babyweight.DefaultOptions().StartStep)

	pipe, _ := build(t, 1)

	assert.Equal(t, "babyweight", pipe.Name())
	assert.Equal(t, "Train Babyweight model", pipe.Description())
	assert.Equal(t, []model.Parameter{
		{Name: "project", Default: "cloud-training-demos"},
		{Name: "bucket", Default: "cloud-training-demos-ml"},
		{Name: "startYear", Default: "2000"},
	}, pipe.Parameters())
}

func TestLiveAndCannedOutputsHaveTheSameShape(t *testing.T) {
	t.Parallel()

	_, live := build(t, 1)
	_, canned := build(t, babyweight.SkipAll)

	for _, stage := range babyweight.Stages() {
		require.True(t, live.Stage(stage).Live(), stage.String())
		require.False(t, canned.Stage(stage).Live(), stage.String())
		assert.Equal(t, live.Stage(stage).Names(), canned.Stage(stage).Names(), stage.String())
		assert.Equal(t, stage.String(), live.Stage(stage).Source())
		assert.Equal(t, stage.String(), canned.Stage(stage).Source())
	}
}

func TestNoForwardReferences(t *testing.T) {
	t.Parallel()

	for startStep := 1; startStep <= babyweight.SkipAll; startStep++ {
		pipe, results := build(t, startStep)

		steps, err := pipe.Steps()
		require.NoError(t, err)

		position := make(map[string]int, len(steps))
		for i, step := range steps {
			position[step.Name()] = i
		}

		for i, step := range steps {
			for _, arg := range step.Args() {
				switch value := arg.(type) {
				case model.OutputRef:
					parent, ok := position[value.Step]
					require.True(t, ok, "start step %d: %s reads unknown step %s", startStep, step.Name(), value.Step)
					assert.Less(t, parent, i, "start step %d: %s reads %s", startStep, step.Name(), value.Step)
				case model.ParamRef:
					assert.Contains(t, []string{"project", "bucket", "startYear"}, value.Name)
				case model.Literal:
				default:
					t.Fatalf("unexpected argument %T", arg)
				}
			}
		}

		executed := make([]string, 0, len(steps))
		for _, stage := range results.Executed() {
			executed = append(executed, stage.String())
		}

		names := make([]string, 0, len(steps))
		for _, step := range steps {
			names = append(names, step.Name())
		}

		assert.Equal(t, executed, names, "start step %d", startStep)
		assert.Len(t, steps, babyweight.SkipAll-startStep)
		assert.Len(t, pipe.Skipped(), startStep-1)
	}
}

func TestStartStepOneWiresPreprocessIntoHyperTrain(t *testing.T) {
	t.Parallel()

	pipe, _ := build(t, 1)

	preprocess := stepOf(t, pipe, babyweight.Preprocess)
	assert.Equal(t, "gcr.io/cloud-training-demos/babyweight-pipeline-bqtocsv:latest", preprocess.Image())
	assert.Equal(t, []model.Value{
		model.Literal("--project"), model.ParamRef{Name: "project"},
		model.Literal("--mode"), model.Literal("cloud"),
		model.Literal("--bucket"), model.ParamRef{Name: "bucket"},
		model.Literal("--start_year"), model.ParamRef{Name: "startYear"},
	}, preprocess.Args())

	hyperTrain := stepOf(t, pipe, babyweight.HyperTrain)
	assert.Equal(t, []model.Value{model.OutputRef{Step: "preprocess", Output: "bucket"}}, hyperTrain.Args())

	upstream, err := pipe.Upstream(hyperTrain)
	require.NoError(t, err)
	require.Len(t, upstream, 1)
	assert.Same(t, preprocess, upstream[0])
}

func TestStartStepTwoUsesBucketParameter(t *testing.T) {
	t.Parallel()

	pipe, results := build(t, 2)

	assert.False(t, results.Stage(babyweight.Preprocess).Live())

	hyperTrain := stepOf(t, pipe, babyweight.HyperTrain)
	assert.Equal(t, []model.Value{model.ParamRef{Name: "bucket"}}, hyperTrain.Args())

	upstream, err := pipe.Upstream(hyperTrain)
	require.NoError(t, err)
	assert.Empty(t, upstream)
}

func TestStartStepThreeTrainingCommand(t *testing.T) {
	t.Parallel()

	pipe, _ := build(t, 3)

	_, ok := pipe.Step(babyweight.HyperTrain.String())
	assert.False(t, ok)

	train := stepOf(t, pipe, babyweight.TrainTuned)
	assert.Equal(t, pipeline.TFJobLauncherImage, train.Image())
	assert.Equal(t, &model.Topology{Workers: 10, ParameterServers: 3, TimeoutMinutes: 5}, train.Topology())

	args := train.Args()
	assert.Equal(t, []model.Value{
		model.Literal("bash"),
		model.Literal("/babyweight/src/train.sh"),
		model.Literal("babyweight_181008_210829"),
		model.ParamRef{Name: "bucket"},
	}, args[len(args)-4:])

	rendered, err := pipe.RenderArgs(train)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--workers", "10",
		"--pss", "3",
		"--tfjob-timeout-minutes", "5",
		"--container-image", "gcr.io/cloud-training-demos/babyweight-pipeline-traintuned-trainer:latest",
		"--ui-metadata-type", "tensorboard",
		"--",
		"bash", "/babyweight/src/train.sh", "babyweight_181008_210829", "cloud-training-demos-ml",
	}, rendered)
}

func TestStartStepFourDeployment(t *testing.T) {
	t.Parallel()

	pipe, results := build(t, 4)

	deployModel := results.Stage(babyweight.DeployModel)
	require.True(t, deployModel.Live())
	assert.Equal(t, []string{"model", "version"}, deployModel.Names())

	// the result visible after the pipeline is the deployapp one, while
	// deploycmle keeps its own binding
	deployment := results.Deployment()
	require.NotNil(t, deployment)
	assert.True(t, deployment.Live())
	assert.Equal(t, "deployapp", deployment.Source())
	assert.Equal(t, []string{"appurl"}, deployment.Names())

	deployApp := stepOf(t, pipe, babyweight.DeployApp)
	assert.Equal(t, []model.Value{
		model.OutputRef{Step: "deploycmle", Output: "model"},
		model.OutputRef{Step: "deploycmle", Output: "version"},
	}, deployApp.Args())

	deploy := stepOf(t, pipe, babyweight.DeployModel)
	assert.Equal(t, []model.Value{
		model.Literal("gs://cloud-training-demos-ml/babyweight/hyperparam/15"),
		model.Literal("babyweight"),
		model.Literal("mlp"),
	}, deploy.Args())
}

func TestStartStepFiveUsesCannedModel(t *testing.T) {
	t.Parallel()

	pipe, results := build(t, 5)

	assert.False(t, results.Stage(babyweight.DeployModel).Live())
	assert.True(t, results.Deployment().Live())

	deployApp := stepOf(t, pipe, babyweight.DeployApp)
	assert.Equal(t, model.Literals("babyweight", "mlp"), deployApp.Args())
}

func TestSkipAllDeployment(t *testing.T) {
	t.Parallel()

	pipe, results := build(t, babyweight.SkipAll)

	steps, err := pipe.Steps()
	require.NoError(t, err)
	assert.Empty(t, steps)
	assert.Empty(t, results.Executed())

	appURL, err := results.Deployment().Get("appurl")
	require.NoError(t, err)
	assert.Equal(t, model.Literal("https://cloud-training-demos.appspot.com/"), appURL)

	bucket, err := results.Stage(babyweight.Preprocess).Get("bucket")
	require.NoError(t, err)
	assert.Equal(t, model.ParamRef{Name: "bucket"}, bucket)
}

func TestBuildCustomOptions(t *testing.T) {
	t.Parallel()

	opts := babyweight.DefaultOptions()
	opts.StartStep = 3
	opts.Bucket = "my-bucket"
	opts.Images.Trainer = "registry.example.com/ml/trainer:v2"
	opts.Training = babyweight.Training{Workers: 2, ParameterServers: 0, TimeoutMinutes: 30}

	pipe, _, err := babyweight.Build(context.Background(), opts)
	require.NoError(t, err)

	rendered, err := pipe.RenderArgs(stepOf(t, pipe, babyweight.TrainTuned))
	require.NoError(t, err)
	assert.Equal(t, []string{"--workers", "2", "--pss", "0", "--tfjob-timeout-minutes", "30"}, rendered[:6])
	assert.Contains(t, rendered, "registry.example.com/ml/trainer:v2")
	assert.Equal(t, "my-bucket", rendered[len(rendered)-1])

	opts.Training.Workers = 0
	_, _, err = babyweight.Build(context.Background(), opts)
	assert.ErrorIs(t, err, pipeline.ErrInvalidTopology)

	opts = babyweight.DefaultOptions()
	opts.Images.DeployApp = "Not A Valid Image"
	_, _, err = babyweight.Build(context.Background(), opts)
	assert.ErrorIs(t, err, pipeline.ErrInvalidImage)
}

func TestBuildLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	opts := babyweight.DefaultOptions()
	opts.StartStep = 4

	_, _, err := babyweight.Build(ctx, opts)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="stage skipped" pipeline=babyweight start_step=4 stage=traintuned`)
	assert.Contains(t, out, `msg="stage added" pipeline=babyweight start_step=4 stage=deployapp`)
	assert.Contains(t, out, "executed=2 skipped=3")
}

func TestCompileEveryStartStep(t *testing.T) {
	t.Parallel()

	for startStep := 1; startStep <= babyweight.SkipAll; startStep++ {
		pipe, results := build(t, startStep)

		wf, err := compiler.Compile(pipe)
		require.NoError(t, err, "start step %d", startStep)

		assert.Len(t, wf.Spec.Templates, len(results.Executed())+1, "start step %d", startStep)
		assert.Len(t, wf.Spec.Arguments.Parameters, 3)
	}
}
