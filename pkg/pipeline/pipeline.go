package pipeline

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

// Pipeline is a named, versioned graph of container steps and the parameters
// they read.
type Pipeline struct {
	info    model.PipelineInfo
	opts    []model.PipelineOption
	params  []model.Parameter
	steps   map[string]*Step
	index   map[string]int
	skipped []*model.StepInfo
	dag     *dag
	sealed  bool
}

// New creates an empty pipeline.
func New(info model.PipelineInfo, opts ...model.PipelineOption) (*Pipeline, error) {
	if info.Name == "" {
		return nil, errors.Wrap(ErrEmptyName, "pipeline")
	}

	pipe := &Pipeline{
		info:  info,
		opts:  opts,
		steps: make(map[string]*Step),
		index: make(map[string]int),
		dag:   newDAG(),
	}

	for _, opt := range opts {
		err := opt.New(info)
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

func (p *Pipeline) Name() string        { return p.info.Name }
func (p *Pipeline) Description() string { return p.info.Description }
func (p *Pipeline) Version() string     { return p.info.Version }

// Info returns the identity of the pipeline.
func (p *Pipeline) Info() model.PipelineInfo {
	return p.info
}

// AddParameter declares a pipeline parameter. Parameters keep the order in
// which they are declared.
func (p *Pipeline) AddParameter(name, defaultValue string) (model.ParamRef, error) {
	if p == nil {
		return model.ParamRef{}, ErrPipelineMustBeSet
	}

	if p.sealed {
		return model.ParamRef{}, ErrPipelineSealed
	}

	if name == "" {
		return model.ParamRef{}, errors.Wrap(ErrEmptyName, "parameter")
	}

	if !namePattern.MatchString(name) {
		return model.ParamRef{}, errors.Wrapf(ErrInvalidParamName, "%q", name)
	}

	if _, ok := p.parameter(name); ok {
		return model.ParamRef{}, errors.Wrapf(ErrDuplicateParameter, "%q", name)
	}

	param := model.Parameter{Name: name, Default: defaultValue}
	p.params = append(p.params, param)

	return param.Ref(), nil
}

// Parameters returns the declared parameters in declaration order.
func (p *Pipeline) Parameters() []model.Parameter {
	res := make([]model.Parameter, len(p.params))
	copy(res, p.params)

	return res
}

func (p *Pipeline) parameter(name string) (model.Parameter, bool) {
	for _, param := range p.params {
		if param.Name == name {
			return param, true
		}
	}

	return model.Parameter{}, false
}

// Step returns the step with the given name.
func (p *Pipeline) Step(name string) (*Step, bool) {
	step, ok := p.steps[name]

	return step, ok
}

// Steps returns the steps in topological order. Independent steps keep their
// declaration order.
func (p *Pipeline) Steps() ([]*Step, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	names, err := p.dag.order(p.index)
	if err != nil {
		return nil, err
	}

	res := make([]*Step, 0, len(names))
	for _, name := range names {
		res = append(res, p.steps[name])
	}

	return res, nil
}

// Upstream returns the steps whose outputs step reads, in declaration order.
func (p *Pipeline) Upstream(step *Step) ([]*Step, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if step == nil {
		return nil, ErrNilArgument
	}

	names, err := p.dag.parents(step.Name(), p.index)
	if err != nil {
		return nil, err
	}

	res := make([]*Step, 0, len(names))
	for _, name := range names {
		res = append(res, p.steps[name])
	}

	return res, nil
}

// Skip records that the stage name is replaced by out and does not run.
func (p *Pipeline) Skip(name string, out model.StepOutput) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if p.sealed {
		return ErrPipelineSealed
	}

	if out == nil {
		return errors.Wrapf(ErrNilArgument, "canned output of %s", name)
	}

	err := p.checkStepName(name)
	if err != nil {
		return err
	}

	info := &model.StepInfo{
		Kind:    model.CannedStepKind,
		Name:    name,
		Outputs: out.Names(),
	}

	for _, opt := range p.opts {
		err := opt.PrepareSkipped(info)
		if err != nil {
			return errors.Wrap(err, "unable to run prepare skipped function")
		}
	}

	p.skipped = append(p.skipped, info)

	return nil
}

// Skipped returns the stages replaced by canned outputs, in the order they
// were skipped.
func (p *Pipeline) Skipped() []*model.StepInfo {
	res := make([]*model.StepInfo, len(p.skipped))
	copy(res, p.skipped)

	return res
}

func (p *Pipeline) isSkipped(name string) bool {
	for _, info := range p.skipped {
		if info.Name == name {
			return true
		}
	}

	return false
}

// Seal finishes the pipeline. Options run their Finish hook and any later
// change to the pipeline fails with ErrPipelineSealed. Sealing twice is a
// no-op.
func (p *Pipeline) Seal() error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if p.sealed {
		return nil
	}

	p.sealed = true

	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

// Sealed reports whether Seal has been called.
func (p *Pipeline) Sealed() bool {
	return p.sealed
}
