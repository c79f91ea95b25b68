package model

// PipelineInfo identifies a pipeline.
type PipelineInfo struct {
	Name        string
	Description string
	Version     string
}

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New(info PipelineInfo) error
	// PrepareStep runs once a step has been validated and added to the graph.
	PrepareStep(parentSteps []*StepInfo, step *StepInfo) error
	// PrepareSkipped runs when a stage is replaced by a canned output.
	PrepareSkipped(step *StepInfo) error
	// Finish runs when the pipeline is sealed.
	Finish() error
}
