package handlers

import (
	"context"
	"io"
	"testing"

	"github.com/go-logr/logr"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/deploy"
	"github.com/stagehand-dev/stagehand/internal/evaluator"
	"github.com/stagehand-dev/stagehand/internal/pipeline"
	"github.com/stagehand-dev/stagehand/internal/platform/github"
	"github.com/stagehand-dev/stagehand/internal/platform/hcloud"
	"github.com/stagehand-dev/stagehand/internal/statestore"
	"github.com/stagehand-dev/stagehand/internal/util/prerequisites"
)

// saveAndRestoreFactories saves all factory variables and restores them
// after the test.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoadConfigFile := loadConfigFile
	origLoadCredentials := loadCredentials
	origCheckDefaultPrereqs := checkDefaultPrereqs
	origNewInfraClient := newInfraClient
	origNewCodeHost := newCodeHost
	origNewStore := newStore
	origNewEvaluator := newEvaluator
	origNewDeployer := newDeployer
	origNewPipeline := newPipeline
	origRunPipelineTUI := runPipelineTUI
	origConfirmDebugSession := confirmDebugSession
	origPushMetrics := pushMetrics
	origNewImageBuilder := newImageBuilder
	origCheckAllPrereqs := checkAllPrereqs
	origRunDoctorTUI := runDoctorTUI
	origRunChecksPlain := runChecksPlain
	origFileExists := fileExists
	origRunWizard := runWizard
	origWriteFile := writeFile

	t.Cleanup(func() {
		loadConfigFile = origLoadConfigFile
		loadCredentials = origLoadCredentials
		checkDefaultPrereqs = origCheckDefaultPrereqs
		newInfraClient = origNewInfraClient
		newCodeHost = origNewCodeHost
		newStore = origNewStore
		newEvaluator = origNewEvaluator
		newDeployer = origNewDeployer
		newPipeline = origNewPipeline
		runPipelineTUI = origRunPipelineTUI
		confirmDebugSession = origConfirmDebugSession
		pushMetrics = origPushMetrics
		newImageBuilder = origNewImageBuilder
		checkAllPrereqs = origCheckAllPrereqs
		runDoctorTUI = origRunDoctorTUI
		runChecksPlain = origRunChecksPlain
		fileExists = origFileExists
		runWizard = origRunWizard
		writeFile = origWriteFile
	})
}

// validConfig returns a configuration that passes validation, with the
// definitions directory pointed at a fresh temp dir.
func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load([]byte(`
repository:
  owner: acme
  name: webapp
environment:
  ssh_key: staging-deploy
state:
  bucket: stagehand-state
  endpoint: https://fsn1.your-objectstorage.com
  region: fsn1
`))
	if err != nil {
		t.Fatalf("fixture config did not validate: %v", err)
	}
	cfg.Environment.DefinitionsDir = t.TempDir()
	return cfg
}

// fullCredentials returns credentials with every secret set.
func fullCredentials() *config.Credentials {
	return &config.Credentials{
		HCloudToken:    "hcloud-token",
		GitHubToken:    "github-token",
		StateAccessKey: "access",
		StateSecretKey: "secret",
	}
}

// stubs bundles the test doubles the shared factories return.
type stubs struct {
	host     *github.MockClient
	infra    *hcloud.MockClient
	store    *mockStore
	eval     *mockEvaluator
	deployer *mockDeployer
}

// stubCommonFactories points the shared factories at benign test doubles
// and returns the doubles for per-test tweaking.
func stubCommonFactories(t *testing.T, cfg *config.Config) *stubs {
	t.Helper()

	s := &stubs{
		host:     &github.MockClient{},
		infra:    &hcloud.MockClient{},
		store:    &mockStore{},
		eval:     &mockEvaluator{workdir: cfg.Environment.DefinitionsDir},
		deployer: &mockDeployer{},
	}

	loadConfigFile = func(string) (*config.Config, error) { return cfg, nil }
	loadCredentials = func() *config.Credentials { return fullCredentials() }
	checkDefaultPrereqs = func() *prerequisites.CheckResults { return &prerequisites.CheckResults{} }
	newCodeHost = func(string, string) (codeHost, error) { return s.host, nil }
	newInfraClient = func(string, logr.Logger) (hcloud.InfrastructureManager, error) { return s.infra, nil }
	newStore = func(config.StateConfig, string, string, logr.Logger) (stateStore, error) { return s.store, nil }
	newEvaluator = func(string, logr.Logger, io.Writer) (tfEvaluator, error) { return s.eval, nil }
	newDeployer = func(github.TarballDownloader, config.DeployConfig, config.RepositoryConfig, logr.Logger) (appDeployer, error) {
		return s.deployer, nil
	}

	return s
}

// mockStore implements stateStore in memory.
type mockStore struct {
	defs    map[string][]byte
	saved   []string
	deleted []string
	pingErr error
}

func (m *mockStore) List(context.Context) ([]statestore.Definition, error) {
	defs := make([]statestore.Definition, 0, len(m.defs))
	for name, data := range m.defs {
		defs = append(defs, statestore.Definition{Name: name, Size: int64(len(data))})
	}
	return defs, nil
}

func (m *mockStore) Get(_ context.Context, name string) ([]byte, string, error) {
	data, ok := m.defs[name]
	if !ok {
		return nil, "", statestore.ErrNotFound
	}
	return data, "etag", nil
}

func (m *mockStore) SaveDefinition(_ context.Context, name string, data []byte) error {
	if m.defs == nil {
		m.defs = map[string][]byte{}
	}
	m.defs[name] = data
	m.saved = append(m.saved, name)
	return nil
}

func (m *mockStore) Delete(_ context.Context, name string) error {
	delete(m.defs, name)
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockStore) Ping(context.Context) error {
	return m.pingErr
}

// mockEvaluator implements tfEvaluator and records calls in order.
type mockEvaluator struct {
	workdir    string
	calls      []string
	planResult *evaluator.PlanResult
	planErr    error
	applyErr   error
	destroyErr error
	targets    []string
	address    string
}

func (m *mockEvaluator) Workdir() string { return m.workdir }

func (m *mockEvaluator) Init(context.Context) error {
	m.calls = append(m.calls, "init")
	return nil
}

func (m *mockEvaluator) Plan(_ context.Context, targets ...string) (*evaluator.PlanResult, error) {
	m.calls = append(m.calls, "plan")
	m.targets = append(m.targets, targets...)
	if m.planResult == nil {
		return &evaluator.PlanResult{OK: true}, m.planErr
	}
	return m.planResult, m.planErr
}

func (m *mockEvaluator) Apply(_ context.Context, targets ...string) error {
	m.calls = append(m.calls, "apply")
	m.targets = append(m.targets, targets...)
	return m.applyErr
}

func (m *mockEvaluator) Output(_ context.Context, name string) (string, error) {
	m.calls = append(m.calls, "output "+name)
	if m.address == "" {
		return "203.0.113.10", nil
	}
	return m.address, nil
}

func (m *mockEvaluator) Destroy(_ context.Context, targets ...string) error {
	m.calls = append(m.calls, "destroy")
	m.targets = targets
	return m.destroyErr
}

// mockDeployer implements appDeployer.
type mockDeployer struct {
	deployErr error
	sessions  []deploy.Target
	targets   []deploy.Target
}

func (m *mockDeployer) Deploy(_ context.Context, target deploy.Target) error {
	m.targets = append(m.targets, target)
	return m.deployErr
}

func (m *mockDeployer) DebugSession(_ context.Context, target deploy.Target) error {
	m.sessions = append(m.sessions, target)
	return nil
}

// mockPipeline implements pipelineRunner.
type mockPipeline struct {
	run    *pipeline.Run
	err    error
	called []int
}

func (m *mockPipeline) Run(_ context.Context, prNumber int) (*pipeline.Run, error) {
	m.called = append(m.called, prNumber)
	return m.run, m.err
}
