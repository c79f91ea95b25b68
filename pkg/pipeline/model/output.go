package model

import (
	"sort"

	"github.com/pkg/errors"
)

// OutputDecl binds an output name to the file the container writes it to.
type OutputDecl struct {
	Name string
	Path string
}

// StepOutput is the result of a pipeline stage as seen by the stages after it.
//
// A live output is bound to a step of the pipeline and hands out OutputRefs.
// A canned output stands in for a skipped stage and hands out the substitute
// values it was built with. Both expose the same names for the same stage.
type StepOutput interface {
	// Source is the name of the stage that produced the output.
	Source() string
	// Names returns the declared output names, sorted.
	Names() []string
	// Get returns the value of the named output.
	Get(name string) (Value, error)
	// Live reports whether the output is bound to a step that will run.
	Live() bool
}

// CannedOutput is a fixed set of values substituted for a skipped stage.
type CannedOutput struct {
	source string
	values map[string]Value
}

// NewCannedOutput returns the canned output of the stage named source.
func NewCannedOutput(source string, values map[string]Value) *CannedOutput {
	copied := make(map[string]Value, len(values))
	for name, value := range values {
		copied[name] = value
	}

	return &CannedOutput{source: source, values: copied}
}

func (c *CannedOutput) Source() string {
	return c.source
}

func (c *CannedOutput) Names() []string {
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (c *CannedOutput) Get(name string) (Value, error) {
	value, ok := c.values[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOutput, "%s has no output %q", c.source, name)
	}

	return value, nil
}

func (*CannedOutput) Live() bool {
	return false
}

var _ StepOutput = (*CannedOutput)(nil)
