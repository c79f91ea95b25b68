package babyweight

import (
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

const (
	Name        = "babyweight"
	Description = "Train Babyweight model"

	DefaultProject   = "cloud-training-demos"
	DefaultBucket    = "cloud-training-demos-ml"
	DefaultStartYear = "2000"
	DefaultVersion   = "0.1.0"

	// ModelName and ModelVersion name the model deployed to Cloud ML Engine.
	ModelName    = "babyweight"
	ModelVersion = "mlp"

	ParamProject   = "project"
	ParamBucket    = "bucket"
	ParamStartYear = "startYear"
)

// Images are the container images of the stages. They are resolved when the
// pipeline is defined.
type Images struct {
	Preprocess  string
	HyperTrain  string
	Trainer     string
	DeployModel string
	DeployApp   string
}

// DefaultImages returns the published images of the stages.
func DefaultImages() Images {
	return Images{
		Preprocess:  "gcr.io/cloud-training-demos/babyweight-pipeline-bqtocsv:latest",
		HyperTrain:  "gcr.io/cloud-training-demos/babyweight-pipeline-hypertrain:latest",
		Trainer:     "gcr.io/cloud-training-demos/babyweight-pipeline-traintuned-trainer:latest",
		DeployModel: "gcr.io/cloud-training-demos/babyweight-pipeline-deploycmle:latest",
		DeployApp:   "gcr.io/cloud-training-demos/babyweight-pipeline-deployapp:latest",
	}
}

// Training topology of the traintuned stage.
type Training struct {
	Workers          int
	ParameterServers int
	TimeoutMinutes   int
}

// Options configures Build.
type Options struct {
	// StartStep is the first stage that runs, from 1 to SkipAll.
	StartStep int

	Version   string
	Project   string
	Bucket    string
	StartYear string

	Images   Images
	Training Training

	PipelineOptions []model.PipelineOption
}

// DefaultOptions returns options which build the whole pipeline.
func DefaultOptions() Options {
	return Options{
		StartStep: int(FirstStage),
		Version:   DefaultVersion,
		Project:   DefaultProject,
		Bucket:    DefaultBucket,
		StartYear: DefaultStartYear,
		Images:    DefaultImages(),
		Training: Training{
			Workers:          10,
			ParameterServers: 3,
			TimeoutMinutes:   5,
		},
	}
}
