package pipeline

type renderConfig struct {
	overrides map[string]string
}

// RenderOption configures RenderArgs.
type RenderOption func(c *renderConfig)

// WithParameterValues replaces the defaults of the named parameters. Every
// name must be declared on the pipeline.
func WithParameterValues(values map[string]string) RenderOption {
	return func(c *renderConfig) {
		for name, value := range values {
			c.overrides[name] = value
		}
	}
}
