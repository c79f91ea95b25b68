package pipeline

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

const (
	// TFJobLauncherImage runs a TFJob on the cluster and waits for it.
	TFJobLauncherImage = "gcr.io/ml-pipeline/ml-pipeline-kubeflow-tf:0.1.0"
	// TFJobOutput is the single output of a launcher step: the model location.
	TFJobOutput = "train"

	defaultTFJobName = "TFJob-launcher"
	tfJobOutputPath  = "/output.txt"
	tfJobUIMetadata  = "tensorboard"
)

// Step is a container step of a pipeline.
type Step struct {
	info    *model.StepInfo
	image   string
	args    []model.Value
	outputs []model.OutputDecl
}

func (s *Step) Name() string  { return s.info.Name }
func (s *Step) Image() string { return s.image }

// Info describes the step to pipeline options.
func (s *Step) Info() *model.StepInfo {
	return s.info
}

// Args returns the ordered command-line arguments of the container.
func (s *Step) Args() []model.Value {
	res := make([]model.Value, len(s.args))
	copy(res, s.args)

	return res
}

// OutputDecls returns the declared outputs in declaration order.
func (s *Step) OutputDecls() []model.OutputDecl {
	res := make([]model.OutputDecl, len(s.outputs))
	copy(res, s.outputs)

	return res
}

// Topology is only set for TFJob launcher steps.
func (s *Step) Topology() *model.Topology {
	return s.info.Topology
}

// Output returns a reference to one of the declared outputs.
func (s *Step) Output(name string) (model.OutputRef, error) {
	if !s.declares(name) {
		return model.OutputRef{}, errors.Wrapf(ErrUnknownOutput, "%s has no output %q", s.Name(), name)
	}

	return model.OutputRef{Step: s.Name(), Output: name}, nil
}

// Outputs returns the live output of the step.
func (s *Step) Outputs() *LiveOutput {
	return &LiveOutput{step: s}
}

func (s *Step) declares(name string) bool {
	for _, out := range s.outputs {
		if out.Name == name {
			return true
		}
	}

	return false
}

// LiveOutput exposes the outputs of a step which will run. Its values are
// references, resolved by the orchestrator once the step has finished.
type LiveOutput struct {
	step *Step
}

func (l *LiveOutput) Source() string {
	return l.step.Name()
}

func (l *LiveOutput) Names() []string {
	names := append([]string(nil), l.step.info.Outputs...)
	sort.Strings(names)

	return names
}

func (l *LiveOutput) Get(name string) (model.Value, error) {
	return l.step.Output(name)
}

func (*LiveOutput) Live() bool {
	return true
}

var _ model.StepOutput = (*LiveOutput)(nil)

// ContainerOp declares a container step. The step is validated and wired into
// the graph from the references found in spec.Args.
func (p *Pipeline) ContainerOp(spec model.ContainerSpec) (*Step, error) {
	return p.addStep(model.ContainerStepKind, spec, nil)
}

// TFJobLauncher declares a distributed training step. The launcher container
// provisions workers and parameter servers running spec.ContainerImage with
// spec.Command, and writes the model location to its "train" output.
func (p *Pipeline) TFJobLauncher(spec model.TFJobSpec) (*Step, error) {
	if spec.Name == "" {
		spec.Name = defaultTFJobName
	}

	switch {
	case spec.Workers <= 0:
		return nil, errors.Wrapf(ErrInvalidTopology, "%s: workers must be positive, got %d", spec.Name, spec.Workers)
	case spec.ParameterServers < 0:
		return nil, errors.Wrapf(ErrInvalidTopology, "%s: parameter servers must not be negative, got %d", spec.Name, spec.ParameterServers)
	case spec.TimeoutMinutes <= 0:
		return nil, errors.Wrapf(ErrInvalidTopology, "%s: timeout must be positive, got %d", spec.Name, spec.TimeoutMinutes)
	}

	err := checkImage(spec.ContainerImage)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: container image", spec.Name)
	}

	args := []model.Value{
		model.Literal("--workers"), model.Int(spec.Workers),
		model.Literal("--pss"), model.Int(spec.ParameterServers),
		model.Literal("--tfjob-timeout-minutes"), model.Int(spec.TimeoutMinutes),
		model.Literal("--container-image"), model.Literal(spec.ContainerImage),
	}
	if spec.OutputDir != nil {
		args = append(args, model.Literal("--output-dir"), spec.OutputDir)
	}

	args = append(args, model.Literal("--ui-metadata-type"), model.Literal(tfJobUIMetadata), model.Literal("--"))
	args = append(args, spec.Command...)

	return p.addStep(model.TFJobStepKind, model.ContainerSpec{
		Name:    spec.Name,
		Image:   TFJobLauncherImage,
		Args:    args,
		Outputs: []model.OutputDecl{{Name: TFJobOutput, Path: tfJobOutputPath}},
	}, &model.Topology{
		Workers:          spec.Workers,
		ParameterServers: spec.ParameterServers,
		TimeoutMinutes:   spec.TimeoutMinutes,
	})
}

func (p *Pipeline) addStep(kind model.StepKind, spec model.ContainerSpec, topology *model.Topology) (*Step, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if p.sealed {
		return nil, ErrPipelineSealed
	}

	err := p.checkStepName(spec.Name)
	if err != nil {
		return nil, err
	}

	err = checkImage(spec.Image)
	if err != nil {
		return nil, errors.Wrapf(err, "step %s", spec.Name)
	}

	err = checkOutputs(spec.Outputs)
	if err != nil {
		return nil, errors.Wrapf(err, "step %s", spec.Name)
	}

	parents, consumed, err := p.upstream(spec.Name, spec.Args)
	if err != nil {
		return nil, errors.Wrapf(err, "step %s", spec.Name)
	}

	outputNames := make([]string, 0, len(spec.Outputs))
	for _, out := range spec.Outputs {
		outputNames = append(outputNames, out.Name)
	}

	step := &Step{
		info: &model.StepInfo{
			Kind:     kind,
			Name:     spec.Name,
			Image:    spec.Image,
			Outputs:  outputNames,
			Topology: topology,
		},
		image:   spec.Image,
		args:    append([]model.Value(nil), spec.Args...),
		outputs: append([]model.OutputDecl(nil), spec.Outputs...),
	}

	err = p.dag.addStep(step)
	if err != nil {
		return nil, err
	}

	parentInfos := make([]*model.StepInfo, 0, len(parents))
	for _, parent := range parents {
		err := p.dag.addLink(parent, step.Name(), consumed[parent])
		if err != nil {
			return nil, err
		}

		parentInfos = append(parentInfos, p.steps[parent].info)
	}

	p.index[step.Name()] = len(p.steps)
	p.steps[step.Name()] = step

	for _, opt := range p.opts {
		err := opt.PrepareStep(parentInfos, step.info)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run prepare step function")
		}
	}

	return step, nil
}
