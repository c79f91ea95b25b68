package model

// StepKind tells how a stage is bound.
type StepKind string

const (
	ContainerStepKind StepKind = "container"
	TFJobStepKind     StepKind = "tfjob"
	CannedStepKind    StepKind = "canned"
)

// StepInfo describes a stage of the pipeline to the pipeline options.
type StepInfo struct {
	Kind     StepKind
	Name     string
	Image    string
	Outputs  []string
	Topology *Topology
}

// Replicas is the number of pods the orchestrator provisions for the step.
func (s *StepInfo) Replicas() int {
	if s.Topology == nil {
		if s.Kind == CannedStepKind {
			return 0
		}

		return 1
	}

	return s.Topology.Workers + s.Topology.ParameterServers
}

// Topology is the resource request of a distributed training step.
type Topology struct {
	Workers          int
	ParameterServers int
	TimeoutMinutes   int
}

// ContainerSpec declares a single container step.
type ContainerSpec struct {
	Name    string
	Image   string
	Args    []Value
	Outputs []OutputDecl
}

// TFJobSpec declares a distributed training step run through the TFJob
// launcher.
type TFJobSpec struct {
	// Name defaults to "TFJob-launcher".
	Name           string
	ContainerImage string
	// Command replaces the entrypoint of ContainerImage.
	Command          []Value
	Workers          int
	ParameterServers int
	TimeoutMinutes   int
	// OutputDir is optional.
	OutputDir Value
}
