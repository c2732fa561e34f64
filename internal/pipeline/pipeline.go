package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/segmentio/ksuid"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/deploy"
	"github.com/stagehand-dev/stagehand/internal/envdef"
	"github.com/stagehand-dev/stagehand/internal/evaluator"
	"github.com/stagehand-dev/stagehand/internal/metrics"
	"github.com/stagehand-dev/stagehand/internal/platform/github"
	hcloud_internal "github.com/stagehand-dev/stagehand/internal/platform/hcloud"
	"github.com/stagehand-dev/stagehand/internal/report"
	"github.com/stagehand-dev/stagehand/internal/statestore"
	"github.com/stagehand-dev/stagehand/internal/util/labels"
)

var (
	// ErrPlanFailure marks a run whose terraform plan failed. The failure
	// is reported on the pull request before the run ends.
	ErrPlanFailure = errors.New("terraform plan failed")

	// ErrApplyFailure marks a run whose terraform apply failed. Fatal, no
	// retry, no rollback.
	ErrApplyFailure = errors.New("terraform apply failed")
)

// DefinitionStore is the slice of the state store a run needs.
type DefinitionStore interface {
	List(ctx context.Context) ([]statestore.Definition, error)
	Get(ctx context.Context, name string) ([]byte, string, error)
	SaveDefinition(ctx context.Context, name string, data []byte) error
}

// Evaluator is the slice of the terraform evaluator a run needs.
type Evaluator interface {
	Workdir() string
	Init(ctx context.Context) error
	Plan(ctx context.Context, targets ...string) (*evaluator.PlanResult, error)
	Apply(ctx context.Context, targets ...string) error
	Output(ctx context.Context, name string) (string, error)
}

// AppDeployer ships the application to a provisioned environment.
type AppDeployer interface {
	Deploy(ctx context.Context, target deploy.Target) error
}

// ImageFinder resolves the newest golden image when the configuration does
// not pin one.
type ImageFinder interface {
	GetSnapshotByLabels(ctx context.Context, labels map[string]string) (*hcloud.Image, error)
}

// Deps bundles the capabilities a pipeline needs. All fields are required.
type Deps struct {
	Config    *config.Config
	Pulls     github.PullRequestService
	Comments  github.IssueCommentService
	Images    ImageFinder
	Store     DefinitionStore
	Evaluator Evaluator
	Deployer  AppDeployer
}

// Pipeline executes ephemeral staging runs.
type Pipeline struct {
	cfg      *config.Config
	pulls    github.PullRequestService
	comments github.IssueCommentService
	images   ImageFinder
	store    DefinitionStore
	eval     Evaluator
	deployer AppDeployer

	observer Observer
	log      logr.Logger
	attr     report.Attribution
	newID    func() string
	now      func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithObserver registers the observer receiving run events. The default
// logs events through the pipeline logger.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(log logr.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithAttribution sets the actor and event named in status comments.
func WithAttribution(a report.Attribution) Option {
	return func(p *Pipeline) {
		p.attr = a
	}
}

// NewPipeline creates a Pipeline over the given dependencies.
func NewPipeline(deps Deps, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Config == nil:
		return nil, fmt.Errorf("pipeline requires a configuration")
	case deps.Pulls == nil:
		return nil, fmt.Errorf("pipeline requires a pull request service")
	case deps.Comments == nil:
		return nil, fmt.Errorf("pipeline requires an issue comment service")
	case deps.Images == nil:
		return nil, fmt.Errorf("pipeline requires an image finder")
	case deps.Store == nil:
		return nil, fmt.Errorf("pipeline requires a definition store")
	case deps.Evaluator == nil:
		return nil, fmt.Errorf("pipeline requires an evaluator")
	case deps.Deployer == nil:
		return nil, fmt.Errorf("pipeline requires a deployer")
	}

	p := &Pipeline{
		cfg:      deps.Config,
		pulls:    deps.Pulls,
		comments: deps.Comments,
		images:   deps.Images,
		store:    deps.Store,
		eval:     deps.Evaluator,
		deployer: deps.Deployer,
		log:      logr.Discard(),
		newID:    func() string { return ksuid.New().String() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.observer == nil {
		p.observer = LogObserver(p.log)
	}
	return p, nil
}

// Run executes the pipeline for one pull request. The returned Run records
// every transition; its Err matches the returned error.
func (p *Pipeline) Run(ctx context.Context, prNumber int) (*Run, error) {
	run := &Run{ID: p.newID(), PullRequest: prNumber}
	started := p.now()
	run.advance(StateValidating, started)
	p.event(Event{
		Type:    EventRunStarted,
		Message: fmt.Sprintf("run started for pull request #%d", prNumber),
		Fields:  map[string]string{"run": run.ID},
	})

	run.Err = p.execute(ctx, run)
	if run.Err != nil {
		run.advance(StateFailed, p.now())
	}

	metrics.RecordRun(run.Outcome(), p.now().Sub(started).Seconds())
	p.event(Event{
		Type:    EventRunFinished,
		Message: "run " + run.Outcome(),
		Fields:  map[string]string{"run": run.ID, "state": string(run.State())},
	})
	return run, run.Err
}

func (p *Pipeline) execute(ctx context.Context, run *Run) error {
	pr, err := p.validate(ctx, run)
	if err != nil {
		return err
	}
	run.Branch = pr.HeadRef

	data, err := p.render(ctx, run)
	if err != nil {
		return err
	}

	// The plan result is data: a failed plan still reaches the report
	// phase, it just marks the run as failed afterwards.
	run.PlanResult = p.plan(ctx, run)

	var failure error
	if !run.PlanResult.OK {
		failure = ErrPlanFailure
	} else {
		run.advance(StatePlanned, p.now())
		failure = p.provisionAndDeploy(ctx, run, pr, data)
	}

	run.Comment = p.composeComment(run, failure)
	if err := p.report(ctx, run); err != nil {
		if failure != nil {
			p.log.Error(err, "failed to post status comment", "pr", run.PullRequest)
			return failure
		}
		return err
	}
	run.advance(StateReported, p.now())
	return failure
}

// validate resolves the pull request and rejects anything that must not
// reach the provisioning steps: unknown numbers, missing head branches and
// fork heads.
func (p *Pipeline) validate(ctx context.Context, run *Run) (*github.PullRequest, error) {
	var pr *github.PullRequest
	err := p.step("validate", func() error {
		got, err := p.pulls.GetPullRequest(ctx, run.PullRequest)
		if err != nil {
			return err
		}
		if err := github.Validate(got, p.cfg.Repository.FullName()); err != nil {
			// The pull request exists, so the requester can be told why
			// nothing happened. Best effort only.
			body := report.InvalidRequest(err.Error()+".", p.attribution(run))
			if cerr := p.comments.CreateComment(ctx, run.PullRequest, body); cerr != nil {
				p.log.Error(cerr, "failed to post rejection comment", "pr", run.PullRequest)
			}
			return err
		}
		pr = got
		return nil
	})
	return pr, err
}

// render materializes the working directory: shared definitions from the
// store, then the fresh per-PR definition file.
func (p *Pipeline) render(ctx context.Context, run *Run) ([]byte, error) {
	var data []byte
	err := p.step("render", func() error {
		imageID, err := p.resolveImage(ctx)
		if err != nil {
			return err
		}

		def := envdef.ForPullRequest(p.baseDefinition(imageID), run.PullRequest)
		rendered, err := envdef.Render(def)
		if err != nil {
			return err
		}
		run.Definition = &def
		data = rendered

		stored, err := p.storedDefinitions(ctx)
		if err != nil {
			return err
		}
		dir := p.eval.Workdir()
		if err := evaluator.SyncGenerated(dir, stored); err != nil {
			return err
		}
		return evaluator.WriteDefinition(dir, def.FileName(), data)
	})
	if err != nil {
		return nil, err
	}
	run.advance(StateResourceFileCreated, p.now())
	return data, nil
}

// plan never returns an error: failures are folded into the result so the
// run can report them before it ends.
func (p *Pipeline) plan(ctx context.Context, run *Run) *evaluator.PlanResult {
	var result *evaluator.PlanResult
	_ = p.step("plan", func() error {
		if err := p.eval.Init(ctx); err != nil {
			result = &evaluator.PlanResult{Detail: err.Error()}
			return err
		}
		res, err := p.eval.Plan(ctx)
		if err != nil {
			result = &evaluator.PlanResult{Detail: err.Error()}
			return err
		}
		result = res
		if !res.OK {
			return errors.New("plan reported failure")
		}
		return nil
	})
	return result
}

func (p *Pipeline) provisionAndDeploy(ctx context.Context, run *Run, pr *github.PullRequest, data []byte) error {
	err := p.step("apply", func() error {
		if err := p.eval.Apply(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrApplyFailure, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	run.advance(StateApplied, p.now())

	// Persist only after a successful apply and before the checkout, so a
	// crash from here on never loses track of provisioned resources.
	if err := p.step("persist", func() error {
		return p.store.SaveDefinition(ctx, run.Definition.FileName(), data)
	}); err != nil {
		return err
	}

	err = p.step("deploy", func() error {
		address, err := p.eval.Output(ctx, run.Definition.OutputName)
		if err != nil {
			return fmt.Errorf("%w: failed to resolve environment address: %v", deploy.ErrDeploymentFailure, err)
		}
		run.Address = address
		return p.deployer.Deploy(ctx, deploy.Target{Address: address, Ref: pr.HeadRef})
	})
	if err != nil {
		return err
	}
	run.advance(StateDeployed, p.now())
	return nil
}

func (p *Pipeline) report(ctx context.Context, run *Run) error {
	return p.step("report", func() error {
		return p.comments.CreateComment(ctx, run.PullRequest, run.Comment)
	})
}

func (p *Pipeline) composeComment(run *Run, failure error) string {
	a := p.attribution(run)
	env := run.Environment()
	switch {
	case failure == nil:
		return report.Success(env, run.Address, a)
	case errors.Is(failure, ErrPlanFailure):
		return report.PlanFailed(env, run.PlanResult.Detail, a)
	case errors.Is(failure, deploy.ErrDeploymentTimeout), errors.Is(failure, deploy.ErrDeploymentFailure):
		return report.DeployFailed(env, run.Address, failure.Error(), a)
	default:
		// Apply and persistence failures: the infrastructure step did
		// not converge.
		return report.ApplyFailed(env, failure.Error(), a)
	}
}

// resolveImage returns the configured image, or the newest managed golden
// image matching the environment's architecture.
func (p *Pipeline) resolveImage(ctx context.Context) (string, error) {
	if p.cfg.Environment.Image != "" {
		return p.cfg.Environment.Image, nil
	}

	arch := hcloud_internal.DetectArchitecture(p.cfg.Environment.ServerType)
	img, err := p.images.GetSnapshotByLabels(ctx, map[string]string{
		labels.KeyManagedBy:    labels.ManagedByStagehand,
		labels.KeyKind:         labels.KindGoldenImage,
		labels.KeyArchitecture: arch.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to look up golden image: %w", err)
	}
	if img == nil {
		return "", fmt.Errorf("no %s golden image found, build one with `stagehand image build`", arch)
	}
	return strconv.FormatInt(img.ID, 10), nil
}

func (p *Pipeline) baseDefinition(imageID string) envdef.Definition {
	env := p.cfg.Environment
	return envdef.Definition{
		Name:         "staging",
		ImageID:      imageID,
		ServerType:   env.ServerType,
		Location:     env.Location,
		SSHKeyName:   env.SSHKey,
		FirewallName: env.Firewall,
		BaseDomain:   env.BaseDomain,
		OutputName:   "staging_dns",
	}
}

func (p *Pipeline) storedDefinitions(ctx context.Context) (map[string][]byte, error) {
	defs, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored definitions: %w", err)
	}
	stored := make(map[string][]byte, len(defs))
	for _, d := range defs {
		data, _, err := p.store.Get(ctx, d.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch stored definition %s: %w", d.Name, err)
		}
		stored[d.Name] = data
	}
	return stored, nil
}

func (p *Pipeline) attribution(run *Run) report.Attribution {
	a := p.attr
	a.RunID = run.ID
	return a
}

// step wraps one pipeline activity with observer events and a duration
// metric.
func (p *Pipeline) step(name string, fn func() error) error {
	start := time.Now()
	p.event(Event{Type: EventPhaseStarted, Phase: name, Message: "starting"})

	err := fn()
	metrics.RecordPhase(name, time.Since(start).Seconds())
	if err != nil {
		p.event(Event{Type: EventPhaseFailed, Phase: name, Message: err.Error()})
		return err
	}

	p.event(Event{
		Type:    EventPhaseCompleted,
		Phase:   name,
		Message: "completed in " + time.Since(start).Round(time.Millisecond).String(),
	})
	return nil
}

func (p *Pipeline) event(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = p.now()
	}
	p.observer.Event(e)
}
