package compiler

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/askiada/go-kfp/pkg/pipeline"
	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

const mainContainer = "main"

// Compile seals p and returns its workflow manifest.
func Compile(p *pipeline.Pipeline) (*Workflow, error) {
	if p == nil {
		return nil, pipeline.ErrPipelineMustBeSet
	}

	err := p.Seal()
	if err != nil {
		return nil, errors.Wrap(err, "unable to seal pipeline")
	}

	names := newNamer()

	entrypoint, err := names.add(p.Name())
	if err != nil {
		return nil, errors.Wrap(err, "pipeline name")
	}

	annotations := map[string]string{AnnotationName: p.Name()}
	if p.Description() != "" {
		annotations[AnnotationDescription] = p.Description()
	}

	if p.Version() != "" {
		annotations[AnnotationVersion] = p.Version()
	}

	wf := &Workflow{
		TypeMeta: metav1.TypeMeta{APIVersion: WorkflowAPIVersion, Kind: WorkflowKind},
		ObjectMeta: metav1.ObjectMeta{
			GenerateName: entrypoint + "-",
			Annotations:  annotations,
		},
		Spec: WorkflowSpec{Entrypoint: entrypoint},
	}

	entry := Template{Name: entrypoint, Inputs: &Arguments{}, DAG: &DAGTemplate{Tasks: []DAGTask{}}}

	for _, param := range p.Parameters() {
		wf.Spec.Arguments.Parameters = append(wf.Spec.Arguments.Parameters, Parameter{
			Name:  param.Name,
			Value: stringPtr(param.Default),
		})
		entry.Inputs.Parameters = append(entry.Inputs.Parameters, Parameter{Name: param.Name})
	}

	steps, err := p.Steps()
	if err != nil {
		return nil, err
	}

	templates := make([]Template, 0, len(steps))

	for _, step := range steps {
		_, err := names.add(step.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "step %s", step.Name())
		}

		tmpl, task, err := compileStep(p, names, step)
		if err != nil {
			return nil, errors.Wrapf(err, "step %s", step.Name())
		}

		templates = append(templates, tmpl)
		entry.DAG.Tasks = append(entry.DAG.Tasks, task)
	}

	wf.Spec.Templates = append([]Template{entry}, templates...)

	return wf, nil
}

func compileStep(p *pipeline.Pipeline, names *namer, step *pipeline.Step) (Template, DAGTask, error) {
	label := names.label(step.Name())

	tmpl := Template{
		Name:    label,
		Inputs:  &Arguments{},
		Outputs: &Arguments{},
		Container: &corev1.Container{
			Name:  mainContainer,
			Image: step.Image(),
		},
	}
	task := DAGTask{Name: label, Template: label}

	inputs := make(inputOwners)

	for _, arg := range step.Args() {
		switch value := arg.(type) {
		case model.Literal:
			tmpl.Container.Args = append(tmpl.Container.Args, string(value))
		case model.ParamRef:
			tmpl.Container.Args = append(tmpl.Container.Args, inputPlaceholder(value.Name))

			first, err := inputs.claim(value.Name, value)
			if err != nil {
				return Template{}, DAGTask{}, err
			}

			if first {
				tmpl.Inputs.Parameters = append(tmpl.Inputs.Parameters, Parameter{Name: value.Name})
				task.Arguments.Parameters = append(task.Arguments.Parameters, Parameter{
					Name:  value.Name,
					Value: stringPtr(inputPlaceholder(value.Name)),
				})
			}
		case model.OutputRef:
			upstream := names.label(value.Step)
			inputName := outputParameterName(upstream, value.Output)
			tmpl.Container.Args = append(tmpl.Container.Args, inputPlaceholder(inputName))

			first, err := inputs.claim(inputName, value)
			if err != nil {
				return Template{}, DAGTask{}, err
			}

			if first {
				tmpl.Inputs.Parameters = append(tmpl.Inputs.Parameters, Parameter{Name: inputName})
				task.Arguments.Parameters = append(task.Arguments.Parameters, Parameter{
					Name:  inputName,
					Value: stringPtr(fmt.Sprintf("{{tasks.%s.outputs.parameters.%s}}", upstream, inputName)),
				})
			}
		default:
			return Template{}, DAGTask{}, errors.Errorf("unsupported value %T", arg)
		}
	}

	for _, out := range step.OutputDecls() {
		tmpl.Outputs.Parameters = append(tmpl.Outputs.Parameters, Parameter{
			Name:      outputParameterName(label, out.Name),
			ValueFrom: &ValueFrom{Path: out.Path},
		})
	}

	if len(tmpl.Inputs.Parameters) == 0 {
		tmpl.Inputs = nil
	}

	if topology := step.Topology(); topology != nil {
		tmpl.Metadata = &TemplateMetadata{Annotations: map[string]string{
			AnnotationWorkers:          strconv.Itoa(topology.Workers),
			AnnotationParameterServers: strconv.Itoa(topology.ParameterServers),
			AnnotationTimeoutMinutes:   strconv.Itoa(topology.TimeoutMinutes),
		}}
	}

	upstream, err := p.Upstream(step)
	if err != nil {
		return Template{}, DAGTask{}, err
	}

	for _, parent := range upstream {
		task.Dependencies = append(task.Dependencies, names.label(parent.Name()))
	}

	return tmpl, task, nil
}

// inputOwners maps the input parameter names of a template to the reference
// they carry.
type inputOwners map[string]model.Value

// claim reports whether name is seen for the first time. A name already held
// by another reference is a collision.
func (o inputOwners) claim(name string, ref model.Value) (bool, error) {
	owner, ok := o[name]
	if !ok {
		o[name] = ref

		return true, nil
	}

	if owner != ref {
		return false, errors.Wrapf(ErrNameCollision, "input %q is used by %s and %s", name, owner, ref)
	}

	return false, nil
}

func outputParameterName(stepLabel, output string) string {
	return stepLabel + "-" + output
}

func inputPlaceholder(name string) string {
	return fmt.Sprintf("{{inputs.parameters.%s}}", name)
}

func stringPtr(s string) *string {
	return &s
}
