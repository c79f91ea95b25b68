// Package babyweight assembles the babyweight training and deployment
// pipeline: preprocess, hypertrain, traintuned, deploycmle and deployapp.
//
// Options.StartStep selects the first stage that runs. Every stage before it
// is bound to a canned output holding the values a previous run produced, so
// a debugging session can resume from any stage. Each stage result is kept
// under its own binding in Results.
package babyweight
