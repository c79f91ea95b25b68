package drawer

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStep adds a step to the pipeline drawer.
	AddStep(stepName string, attributes map[string]string) error
	// AddLink adds a link between parent and children steps.
	AddLink(parentStepName, childrenStepName, label string) error
	// SetAttribute sets a DOT attribute of a step.
	SetAttribute(stepName, key, value string) error
	// Draw writes the pipeline graph.
	Draw() error
}
