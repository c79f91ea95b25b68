package babyweight

import (
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

// Values produced by an earlier run, substituted for skipped stages.
const (
	CannedJobName = "babyweight_181008_210829"
	CannedTrain   = "gs://cloud-training-demos-ml/babyweight/hyperparam/15"
	CannedModel   = ModelName
	CannedVersion = ModelVersion
	CannedAppURL  = "https://cloud-training-demos.appspot.com/"
)

// CannedOutputs returns the substitute output of every stage. A skipped
// preprocess stage hands the bucket parameter through, as the real stage
// writes back the bucket it was given.
func CannedOutputs(bucket model.ParamRef) map[Stage]*model.CannedOutput {
	return map[Stage]*model.CannedOutput{
		Preprocess: model.NewCannedOutput(Preprocess.String(), map[string]model.Value{
			OutputBucket: bucket,
		}),
		HyperTrain: model.NewCannedOutput(HyperTrain.String(), map[string]model.Value{
			OutputJobName: model.Literal(CannedJobName),
		}),
		TrainTuned: model.NewCannedOutput(TrainTuned.String(), map[string]model.Value{
			OutputTrain: model.Literal(CannedTrain),
		}),
		DeployModel: model.NewCannedOutput(DeployModel.String(), map[string]model.Value{
			OutputModel:   model.Literal(CannedModel),
			OutputVersion: model.Literal(CannedVersion),
		}),
		DeployApp: model.NewCannedOutput(DeployApp.String(), map[string]model.Value{
			OutputAppURL: model.Literal(CannedAppURL),
		}),
	}
}
