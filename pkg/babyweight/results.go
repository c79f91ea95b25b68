package babyweight

import (
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

// Results holds the output of every stage, live or canned.
type Results struct {
	stages map[Stage]model.StepOutput
}

func newResults() *Results {
	return &Results{stages: make(map[Stage]model.StepOutput, len(Stages()))}
}

func (r *Results) bind(stage Stage, out model.StepOutput) {
	r.stages[stage] = out
}

// Stage returns the output bound to stage, or nil for an unknown stage.
func (r *Results) Stage(stage Stage) model.StepOutput {
	return r.stages[stage]
}

// Deployment is the deployment state seen by anything running after the
// pipeline: the deployapp result, whether it runs or is canned. The
// deploycmle result stays available through Stage(DeployModel).
func (r *Results) Deployment() model.StepOutput {
	return r.stages[DeployApp]
}

// Executed lists the stages that run, in order.
func (r *Results) Executed() []Stage {
	var res []Stage

	for _, stage := range Stages() {
		if out := r.stages[stage]; out != nil && out.Live() {
			res = append(res, stage)
		}
	}

	return res
}
