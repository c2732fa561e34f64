package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/evaluator"
	"github.com/stagehand-dev/stagehand/internal/util/labels"
)

func TestEnvPlan_NoChanges(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)
	s.eval.planResult = &evaluator.PlanResult{OK: true, Changed: false}

	err := EnvPlan(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "plan"}, s.eval.calls)
}

func TestEnvPlan_SyncsStoredDefinitionsFirst(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)
	s.store.defs = map[string][]byte{
		"extra_staging_PR_7.tf": []byte(`resource "hcloud_server" "staging_PR_7" {}`),
	}

	err := EnvPlan(context.Background(), "", "")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(cfg.Environment.DefinitionsDir, "extra_staging_PR_7.tf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "staging_PR_7")
}

func TestEnvPlan_Failure(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)
	s.eval.planResult = &evaluator.PlanResult{OK: false, Detail: "invalid block"}

	err := EnvPlan(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan failed")
}

func TestEnvPlan_RestrictedToOneEnvironment(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)

	err := EnvPlan(context.Background(), "", "staging_PR_42")
	require.NoError(t, err)
	assert.Equal(t, []string{"hcloud_server.staging_PR_42"}, s.eval.targets)
}

func TestEnvApply_Success(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)

	err := EnvApply(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "apply"}, s.eval.calls)
}

func TestEnvApply_Failure(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)
	s.eval.applyErr = errors.New("quota exceeded")

	err := EnvApply(context.Background(), "", "")
	require.ErrorContains(t, err, "quota exceeded")
}

func TestEnvList_MissingCredentials(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	stubCommonFactories(t, cfg)

	loadCredentials = func() *config.Credentials { return &config.Credentials{} }

	err := EnvList(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STAGEHAND_STATE_ACCESS_KEY")
}

func TestEnvDestroy_RejectsNonPositivePRNumber(t *testing.T) {
	err := EnvDestroy(context.Background(), "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}

func TestEnvDestroy_FullTeardown(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)
	s.store.defs = map[string][]byte{
		"extra_staging_PR_42.tf": []byte(`resource "hcloud_server" "staging_PR_42" {}`),
	}
	var swept []map[string]string
	s.infra.CleanupByLabelFunc = func(_ context.Context, selector map[string]string) error {
		swept = append(swept, selector)
		return nil
	}

	err := EnvDestroy(context.Background(), "", 42)
	require.NoError(t, err)

	assert.Equal(t, []string{"hcloud_server.staging_PR_42"}, s.eval.targets)
	assert.Equal(t, []string{"extra_staging_PR_42.tf"}, s.store.deleted)
	_, statErr := os.Stat(filepath.Join(cfg.Environment.DefinitionsDir, "extra_staging_PR_42.tf"))
	assert.True(t, os.IsNotExist(statErr), "generated definition should be removed from the workdir")
	require.Len(t, swept, 1)
	assert.Equal(t, "42", swept[0][labels.KeyPullRequest])
}

func TestEnvDestroy_DestroyFailureStopsTeardown(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := validConfig(t)
	s := stubCommonFactories(t, cfg)
	s.eval.destroyErr = errors.New("server locked")

	err := EnvDestroy(context.Background(), "", 42)
	require.ErrorContains(t, err, "server locked")
	assert.Empty(t, s.store.deleted, "definition must survive a failed destroy")
}
