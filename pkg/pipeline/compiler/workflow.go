package compiler

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	WorkflowAPIVersion = "argoproj.io/v1alpha1"
	WorkflowKind       = "Workflow"

	annotationPrefix = "pipelines.kubeflow.org/"

	AnnotationName        = annotationPrefix + "pipeline_name"
	AnnotationDescription = annotationPrefix + "pipeline_description"
	AnnotationVersion     = annotationPrefix + "pipeline_version"

	AnnotationWorkers          = annotationPrefix + "tfjob_workers"
	AnnotationParameterServers = annotationPrefix + "tfjob_parameter_servers"
	AnnotationTimeoutMinutes   = annotationPrefix + "tfjob_timeout_minutes"
)

// Workflow is the manifest submitted to the orchestrator.
type Workflow struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata"`

	Spec WorkflowSpec `json:"spec"`
}

type WorkflowSpec struct {
	Entrypoint string     `json:"entrypoint"`
	Arguments  Arguments  `json:"arguments,omitempty"`
	Templates  []Template `json:"templates"`
}

type Arguments struct {
	Parameters []Parameter `json:"parameters,omitempty"`
}

type Parameter struct {
	Name      string     `json:"name"`
	Value     *string    `json:"value,omitempty"`
	ValueFrom *ValueFrom `json:"valueFrom,omitempty"`
}

type ValueFrom struct {
	Path string `json:"path"`
}

type Template struct {
	Name      string            `json:"name"`
	Metadata  *TemplateMetadata `json:"metadata,omitempty"`
	Inputs    *Arguments        `json:"inputs,omitempty"`
	Outputs   *Arguments        `json:"outputs,omitempty"`
	Container *corev1.Container `json:"container,omitempty"`
	DAG       *DAGTemplate      `json:"dag,omitempty"`
}

type TemplateMetadata struct {
	Annotations map[string]string `json:"annotations,omitempty"`
}

type DAGTemplate struct {
	Tasks []DAGTask `json:"tasks"`
}

type DAGTask struct {
	Name         string    `json:"name"`
	Template     string    `json:"template"`
	Dependencies []string  `json:"dependencies,omitempty"`
	Arguments    Arguments `json:"arguments,omitempty"`
}

// Template returns the template with the given name.
func (w *Workflow) Template(name string) (*Template, bool) {
	for i := range w.Spec.Templates {
		if w.Spec.Templates[i].Name == name {
			return &w.Spec.Templates[i], true
		}
	}

	return nil, false
}
