// Package model provides the data structures shared by the pipeline packages.
// It defines the values a step argument can take, the parameters and outputs
// of a pipeline, the two shapes of step output (live and canned) and the
// hooks a pipeline option implements.
package model
