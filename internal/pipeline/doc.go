// Package pipeline runs the ephemeral staging workflow for one pull
// request: validate the request, render and materialize the environment
// definition, plan and apply it, persist the definition, deploy the
// application and report the outcome back on the pull request.
//
// A run is a single linear sequence; concurrency safety across runs comes
// from disjoint per-PR file names and conditional state store writes, not
// from locking. The one deliberate irregularity in the sequence: a failed
// plan does not abort the run — its result is carried forward so the
// status comment is posted before the run fails.
package pipeline
