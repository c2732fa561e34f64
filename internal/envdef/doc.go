// Package envdef models environment definitions and renders them to
// Terraform. A definition binds an environment name to a golden image and
// server shape; rendering produces the declarative .tf file the evaluator
// converges. Per pull request, ForPullRequest derives a uniquely named
// definition whose file, resource, and output names embed the PR number, so
// concurrent staging environments never collide in the shared store.
package envdef
