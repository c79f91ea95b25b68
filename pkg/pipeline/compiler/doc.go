// Package compiler turns a sealed pipeline into an orchestrator workflow
// manifest and packs it into a portable archive.
//
// The manifest is an argoproj.io/v1alpha1 Workflow: pipeline parameters
// become workflow arguments, every step becomes a container template whose
// outputs are read from the files the container writes, and one DAG template
// wires the steps together. The archive is a gzip compressed tarball holding
// the manifest as pipeline.yaml.
package compiler
