package pipeline

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

var (
	ErrPipelineMustBeSet  = errors.New("p must be set")
	ErrPipelineSealed     = errors.New("pipeline is sealed")
	ErrEmptyName          = errors.New("name must be set")
	ErrDuplicateStep      = errors.New("duplicate step name")
	ErrDuplicateParameter = errors.New("duplicate parameter name")
	ErrInvalidParamName   = errors.New("invalid parameter name")
	ErrDuplicateOutput    = errors.New("duplicate output name")
	ErrInvalidOutputName  = errors.New("invalid output name")
	ErrInvalidOutputPath  = errors.New("output path must be absolute")
	ErrNoOutputs          = errors.New("step must declare at least one output")
	ErrInvalidImage       = errors.New("invalid image reference")
	ErrNilArgument        = errors.New("argument must be set")
	ErrUnknownParameter   = errors.New("unknown parameter")
	ErrUnknownOutput      = model.ErrUnknownOutput
	ErrForwardReference   = errors.New("reference to a step not declared before")
	ErrInvalidTopology    = errors.New("invalid tfjob topology")
)
