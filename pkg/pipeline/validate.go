package pipeline

import (
	"path"
	"regexp"
	"slices"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

// namePattern is shared by output and parameter names, both emitted as
// workflow parameter names.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

func (p *Pipeline) checkStepName(stepName string) error {
	if stepName == "" {
		return errors.Wrap(ErrEmptyName, "step")
	}

	if _, ok := p.steps[stepName]; ok || p.isSkipped(stepName) {
		return errors.Wrapf(ErrDuplicateStep, "%q", stepName)
	}

	return nil
}

// checkImage makes sure the image is a valid reference when the pipeline is
// defined; the orchestrator never sees an image it cannot pull by name.
func checkImage(image string) error {
	if image == "" {
		return errors.Wrap(ErrInvalidImage, "image must be set")
	}

	_, err := name.ParseReference(image)
	if err != nil {
		return errors.Wrapf(ErrInvalidImage, "%q: %s", image, err)
	}

	return nil
}

func checkOutputs(outputs []model.OutputDecl) error {
	if len(outputs) == 0 {
		return ErrNoOutputs
	}

	seen := make(map[string]struct{}, len(outputs))

	for _, out := range outputs {
		if !namePattern.MatchString(out.Name) {
			return errors.Wrapf(ErrInvalidOutputName, "%q", out.Name)
		}

		if _, ok := seen[out.Name]; ok {
			return errors.Wrapf(ErrDuplicateOutput, "%q", out.Name)
		}

		seen[out.Name] = struct{}{}

		if !path.IsAbs(out.Path) {
			return errors.Wrapf(ErrInvalidOutputPath, "output %s: %q", out.Name, out.Path)
		}
	}

	return nil
}

// upstream resolves the references found in args. It returns the steps read
// by stepName, in the order they are first referenced, with the outputs read
// from each of them.
func (p *Pipeline) upstream(stepName string, args []model.Value) ([]string, map[string][]string, error) {
	var parents []string

	consumed := make(map[string][]string)

	for i, arg := range args {
		switch value := arg.(type) {
		case nil:
			return nil, nil, errors.Wrapf(ErrNilArgument, "argument %d", i)
		case model.Literal:
		case model.ParamRef:
			if _, ok := p.parameter(value.Name); !ok {
				return nil, nil, errors.Wrapf(ErrUnknownParameter, "argument %d: %q", i, value.Name)
			}
		case model.OutputRef:
			parent, ok := p.steps[value.Step]
			if !ok || value.Step == stepName {
				return nil, nil, errors.Wrapf(ErrForwardReference, "argument %d: %s reads %s", i, stepName, value.Step)
			}

			if !parent.declares(value.Output) {
				return nil, nil, errors.Wrapf(ErrUnknownOutput, "argument %d: %s has no output %q", i, value.Step, value.Output)
			}

			if _, ok := consumed[value.Step]; !ok {
				parents = append(parents, value.Step)
			}

			if !slices.Contains(consumed[value.Step], value.Output) {
				consumed[value.Step] = append(consumed[value.Step], value.Output)
			}
		default:
			return nil, nil, errors.Errorf("argument %d: unsupported value %T", i, arg)
		}
	}

	return parents, consumed, nil
}
