package diagnostics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticeforge/paragon/diagnostics"
	"github.com/latticeforge/paragon/mcts"
)

func TestLoadOptionsAppliesFileOverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
num_threads: 8
pick_method: strongest_prior
use_prior: false
`), 0o644))

	opts, err := diagnostics.LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, 8, opts.NumThreads)
	assert.Equal(t, mcts.StrongestPrior, opts.PickMethod)
	assert.False(t, opts.UsePrior)

	// Untouched fields keep the package defaults.
	def := mcts.DefaultOptions()
	assert.Equal(t, def.NumRolloutPerThread, opts.NumRolloutPerThread)
	assert.Equal(t, def.DirichletAlpha, opts.DirichletAlpha)
}

func TestLoadOptionsMissingFileErrors(t *testing.T) {
	_, err := diagnostics.LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
