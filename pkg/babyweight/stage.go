package babyweight

import "strconv"

// Stage is the position of a step in the pipeline, starting at 1.
type Stage int

const (
	Preprocess Stage = iota + 1
	HyperTrain
	TrainTuned
	DeployModel
	DeployApp
)

const (
	FirstStage = Preprocess
	LastStage  = DeployApp
	// SkipAll is the start step that replaces every stage by its canned output.
	SkipAll = int(LastStage) + 1
)

// Stages lists every stage in execution order.
func Stages() []Stage {
	return []Stage{Preprocess, HyperTrain, TrainTuned, DeployModel, DeployApp}
}

// String returns the step name of the stage.
func (s Stage) String() string {
	switch s {
	case Preprocess:
		return "preprocess"
	case HyperTrain:
		return "hypertrain"
	case TrainTuned:
		return "traintuned"
	case DeployModel:
		return "deploycmle"
	case DeployApp:
		return "deployapp"
	default:
		return "stage-" + strconv.Itoa(int(s))
	}
}

// Output names.
const (
	OutputBucket  = "bucket"
	OutputJobName = "jobname"
	OutputTrain   = "train"
	OutputModel   = "model"
	OutputVersion = "version"
	OutputAppURL  = "appurl"
)
