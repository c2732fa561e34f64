package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/hashicorp/terraform-exec/tfexec"

	"github.com/stagehand-dev/stagehand/internal/config"
)

const planFile = "stagehand.tfplan"

// PlanResult carries the outcome of a plan as data. A failed plan does not
// abort the pipeline; the result travels onward so the requester always
// sees it.
type PlanResult struct {
	// OK is false when the plan itself failed to run.
	OK bool

	// Changed reports whether the plan contains any resource changes.
	Changed bool

	// Summary is the human-readable diff of a successful plan.
	Summary string

	// Detail holds the tool diagnostics of a failed plan.
	Detail string
}

// Evaluator wraps a terraform execution over one working directory.
type Evaluator struct {
	tf       *tfexec.Terraform
	workdir  string
	timeouts *config.Timeouts
	log      logr.Logger
}

// Option customizes an Evaluator.
type Option func(*options)

type options struct {
	execPath string
	output   io.Writer
	timeouts *config.Timeouts
	log      logr.Logger
}

// WithExecPath points at a specific terraform binary instead of consulting
// $PATH.
func WithExecPath(path string) Option {
	return func(o *options) {
		o.execPath = path
	}
}

// WithOutput streams terraform's own stdout and stderr to w, for verbose
// runs. The default discards them; errors still carry the diagnostics.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithTimeouts overrides the phase timeouts, primarily for tests.
func WithTimeouts(t *config.Timeouts) Option {
	return func(o *options) {
		o.timeouts = t
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates an evaluator over workdir, which must already contain the
// definitions directory. The backend configuration inside the directory is
// left untouched.
func New(workdir string, opts ...Option) (*Evaluator, error) {
	o := &options{
		execPath: "terraform",
		output:   io.Discard,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(o)
	}

	info, err := os.Stat(workdir)
	if err != nil {
		return nil, fmt.Errorf("definitions directory %s: %w", workdir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("definitions directory %s is not a directory", workdir)
	}

	tf, err := tfexec.NewTerraform(workdir, o.execPath)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare terraform executor: %w", err)
	}
	tf.SetStdout(o.output)
	tf.SetStderr(o.output)

	if o.timeouts == nil {
		o.timeouts = config.LoadTimeouts()
	}

	return &Evaluator{
		tf:       tf,
		workdir:  workdir,
		timeouts: o.timeouts,
		log:      o.log,
	}, nil
}

// Workdir returns the definitions directory the evaluator runs over.
func (e *Evaluator) Workdir() string {
	return e.workdir
}

// Init prepares the working directory: provider plugins, modules, backend.
func (e *Evaluator) Init(ctx context.Context) error {
	e.log.Info("initializing definitions directory", "dir", e.workdir)
	if err := e.tf.Init(ctx, tfexec.Upgrade(true), tfexec.Reconfigure(true)); err != nil {
		return fmt.Errorf("failed to initialize definitions directory: %w", err)
	}
	return nil
}

// Plan computes the changes needed to converge the directory, without
// applying anything. Passing resource addresses restricts the plan to those
// targets. Tool-level failure is returned inside the result, not as an
// error.
func (e *Evaluator) Plan(ctx context.Context, targets ...string) (*PlanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeouts.Plan)
	defer cancel()

	opts := []tfexec.PlanOption{tfexec.Out(planFile)}
	for _, target := range targets {
		opts = append(opts, tfexec.Target(target))
	}

	changed, err := e.tf.Plan(ctx, opts...)
	if err != nil {
		e.log.Info("plan failed", "error", err.Error())
		return &PlanResult{OK: false, Detail: err.Error()}, nil
	}

	summary, err := e.tf.ShowPlanFileRaw(ctx, planFile)
	if err != nil {
		// The plan itself succeeded; a missing summary is not worth failing
		// the run over.
		e.log.Info("could not render plan summary", "error", err.Error())
		summary = ""
	}

	e.log.Info("plan finished", "changed", changed)
	return &PlanResult{OK: true, Changed: changed, Summary: summary}, nil
}

// Apply converges real infrastructure to the declared state, restricted to
// the given resource addresses when any are passed. Re-applying a converged
// directory performs no changes. Failures are fatal to the run;
// provisioning changes are never retried automatically.
func (e *Evaluator) Apply(ctx context.Context, targets ...string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeouts.Apply)
	defer cancel()

	opts := make([]tfexec.ApplyOption, 0, len(targets))
	for _, target := range targets {
		opts = append(opts, tfexec.Target(target))
	}

	e.log.Info("applying definitions", "dir", e.workdir, "targets", targets)
	if err := e.tf.Apply(ctx, opts...); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	return nil
}

// Output returns the value of a single string output.
func (e *Evaluator) Output(ctx context.Context, name string) (string, error) {
	out, err := e.tf.Output(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read outputs: %w", err)
	}
	return decodeOutput(out, name)
}

func decodeOutput(out map[string]tfexec.OutputMeta, name string) (string, error) {
	meta, ok := out[name]
	if !ok {
		return "", fmt.Errorf("output %s not found", name)
	}
	var value string
	if err := json.Unmarshal(meta.Value, &value); err != nil {
		return "", fmt.Errorf("output %s is not a string: %w", name, err)
	}
	return value, nil
}

// Destroy tears down resources, restricted to the given resource addresses
// when any are passed. Teardown is always an explicit operator action.
func (e *Evaluator) Destroy(ctx context.Context, targets ...string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeouts.Destroy)
	defer cancel()

	opts := make([]tfexec.DestroyOption, 0, len(targets))
	for _, target := range targets {
		opts = append(opts, tfexec.Target(target))
	}

	e.log.Info("destroying", "targets", targets)
	if err := e.tf.Destroy(ctx, opts...); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}
	return nil
}

// Version reports the terraform binary version, for diagnostics.
func (e *Evaluator) Version(ctx context.Context) (string, error) {
	v, _, err := e.tf.Version(ctx, false)
	if err != nil {
		return "", fmt.Errorf("failed to read terraform version: %w", err)
	}
	return v.String(), nil
}
