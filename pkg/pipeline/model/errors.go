package model

import "github.com/pkg/errors"

// ErrUnknownOutput is returned when an output name is not declared by a step.
var ErrUnknownOutput = errors.New("unknown output")
