package model

// Parameter is a named pipeline input with a default value. The default can be
// replaced when the pipeline is submitted.
type Parameter struct {
	Name    string
	Default string
}

// Ref returns the value used to wire the parameter into step arguments.
func (p Parameter) Ref() ParamRef {
	return ParamRef{Name: p.Name}
}
