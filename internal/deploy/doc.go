// Package deploy syncs a pull request's application subtree to a staging
// instance over SSH and restarts the remote services. The whole deploy runs
// under one hard timeout; failures never roll anything back, they surface
// for manual diagnosis (optionally through an interactive debug shell).
package deploy
