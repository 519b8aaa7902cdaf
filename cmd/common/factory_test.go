package common_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZY-Ordinary/StockerAnalyzingAgent/cmd/common"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/config"
	"github.com/ZY-Ordinary/StockerAnalyzingAgent/internal/logger"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()

	cmd := &cobra.Command{Use: "test"}
	cmd.PersistentFlags().String(common.FlagConfig, "", "")
	cmd.PersistentFlags().Bool(common.FlagDebug, false, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestNewDeps_FromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  workers: 6
  retry:
    max_attempts: 2
pacing:
  min_delay: 0s
  max_delay: 1s
`), 0o600))

	deps, err := common.NewDeps(newCommand(t, "--config", path), common.LogToStderr())
	require.NoError(t, err)

	assert.Equal(t, 6, deps.Config.Search.Workers)
	assert.Equal(t, 2, deps.Config.Search.Retry.MaxAttempts)
	assert.Equal(t, time.Second, deps.Config.Pacing.MaxDelay)
	assert.Equal(t, []string{"stderr"}, deps.Config.Logger.OutputPaths)
	assert.NotNil(t, deps.Metrics)
}

func TestNewDeps_DebugFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: test\n"), 0o600))

	deps, err := common.NewDeps(newCommand(t, "--config", path, "--debug"), common.LogToStderr())
	require.NoError(t, err)

	assert.True(t, deps.Config.App.Debug)
	assert.Equal(t, string(logger.DebugLevel), deps.Config.Logger.Level)
}

func TestNewDeps_MissingExplicitFile(t *testing.T) {
	_, err := common.NewDeps(newCommand(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	require.Error(t, err)
}

func TestSearchConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Search.Retry.MaxAttempts = 3
	cfg.Search.Workers = 2
	cfg.Content.UserAgents = []string{"ua"}

	sc := common.SearchConfig(cfg)
	assert.Equal(t, cfg.Search.Endpoint, sc.Endpoint)
	assert.Equal(t, 3, sc.Retry.MaxAttempts)
	assert.Equal(t, 2, sc.Workers)
	assert.Equal(t, []string{"ua"}, sc.UserAgents)
	require.NotNil(t, sc.Retry.IsRetryable)
}

func TestNewAggregator(t *testing.T) {
	t.Parallel()

	agg := common.NewAggregator(config.Default(), logger.NewNop(), nil)
	assert.NotNil(t, agg)
}

func TestDepsValidate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, common.Deps{}.Validate(), common.ErrLoggerRequired)
	assert.ErrorIs(t, common.Deps{Logger: logger.NewNop()}.Validate(), common.ErrConfigRequired)
}
