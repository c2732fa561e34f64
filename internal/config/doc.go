// Package config defines the configuration model shared by all stagehand
// subsystems.
//
// The [Config] struct is the canonical representation of a project's staging
// setup: the watched repository, golden image build parameters, environment
// definition parameters, deploy commands, and the definition state store. It
// is loaded from stagehand.yaml; credentials never live in the file and come
// from the environment via [LoadCredentials]. Operational knobs (timeouts,
// retry budgets) come from the environment via [LoadTimeouts].
package config
