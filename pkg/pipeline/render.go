package pipeline

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

// RenderArgs returns the command line a step would receive when the pipeline
// is submitted. Parameters are replaced by their default, or by the value
// given with WithParameterValues. Overriding an undeclared parameter fails.
// Step outputs are not known before the pipeline runs and are rendered as
// placeholders.
func (p *Pipeline) RenderArgs(step *Step, opts ...RenderOption) ([]string, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if step == nil {
		return nil, ErrNilArgument
	}

	cfg := &renderConfig{overrides: make(map[string]string)}
	for _, opt := range opts {
		opt(cfg)
	}

	values := make(map[string]string, len(p.params))
	for _, param := range p.params {
		values[param.Name] = param.Default
	}

	for name, value := range cfg.overrides {
		if _, ok := values[name]; !ok {
			return nil, errors.Wrapf(ErrUnknownParameter, "override %q", name)
		}

		values[name] = value
	}

	res := make([]string, 0, len(step.args))

	for i, arg := range step.args {
		switch value := arg.(type) {
		case model.ParamRef:
			resolved, ok := values[value.Name]
			if !ok {
				return nil, errors.Wrapf(ErrUnknownParameter, "%s argument %d: %q", step.Name(), i, value.Name)
			}

			res = append(res, resolved)
		default:
			res = append(res, value.String())
		}
	}

	return res, nil
}
