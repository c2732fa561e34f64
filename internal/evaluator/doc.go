// Package evaluator converges environment definitions by driving a
// terraform binary over the definitions directory. Plan never touches
// remote state and reports its outcome as data rather than control flow, so
// a failed plan still reaches the reporting step. Apply is idempotent: an
// already-converged directory applies to zero changes.
package evaluator
