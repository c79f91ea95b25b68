// Package pipeline declares containerised workflows as directed acyclic graphs.
//
// A Pipeline owns an ordered list of parameters and steps. Steps are created
// through the step factory (ContainerOp, TFJobLauncher), which validates the
// declaration and wires the step into the graph from the references found in
// its arguments. Arguments may only reference parameters of the pipeline or
// outputs of steps added before, so the graph is acyclic by construction and
// every problem surfaces when the step is declared, before anything is
// compiled.
//
// A stage that should not run can be replaced by a canned output (see
// model.CannedOutput and Pipeline.Skip). Later steps see the same output names
// whichever way the stage was bound.
//
// Sealing a pipeline runs the Finish hook of every option and makes the
// pipeline read-only. The compiler package seals the pipeline before turning
// it into a workflow archive.
package pipeline
