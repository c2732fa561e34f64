// Package labels provides consistent labeling for Hetzner Cloud resources.
//
// All labels use the stagehand.dev domain prefix and follow a builder
// pattern for constructing label sets with environment, pull request, kind
// and manager identification.
package labels
