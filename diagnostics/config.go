// Package diagnostics is the optional observability surface around the
// core engine: file-based Options loading, a tree snapshot dumper (DOT +
// YAML round trip), and a small websocket push server for watching a
// running search.
package diagnostics

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/latticeforge/paragon/mcts"
)

// LoadOptions reads an mcts.Options payload from path (yaml/toml/json,
// whatever the extension implies). Any field the file doesn't set keeps
// its mcts.DefaultOptions value.
func LoadOptions(path string) (mcts.Options, error) {
	def := mcts.DefaultOptions()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("num_threads", def.NumThreads)
	v.SetDefault("num_rollout_per_thread", def.NumRolloutPerThread)
	v.SetDefault("max_num_moves", def.MaxNumMoves)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("verbose_time", def.VerboseTime)
	v.SetDefault("persistent_tree", def.PersistentTree)
	v.SetDefault("pick_method", def.PickMethod.String())
	v.SetDefault("use_prior", def.UsePrior)
	v.SetDefault("pseudo_games", def.PseudoGames)
	v.SetDefault("save_tree_filename", def.SaveTreeFilename)
	v.SetDefault("root_noise", def.RootNoise)
	v.SetDefault("dirichlet_alpha", def.DirichletAlpha)
	v.SetDefault("cache_size", def.CacheSize)

	if err := v.ReadInConfig(); err != nil {
		return mcts.Options{}, fmt.Errorf("diagnostics: read config %s: %w", path, err)
	}

	opts := def
	opts.NumThreads = v.GetInt("num_threads")
	opts.NumRolloutPerThread = v.GetInt("num_rollout_per_thread")
	opts.MaxNumMoves = v.GetInt("max_num_moves")
	opts.Verbose = v.GetBool("verbose")
	opts.VerboseTime = v.GetDuration("verbose_time")
	opts.PersistentTree = v.GetBool("persistent_tree")
	opts.PickMethod = parsePickMethod(v.GetString("pick_method"))
	opts.UsePrior = v.GetBool("use_prior")
	opts.PseudoGames = v.GetInt("pseudo_games")
	opts.SaveTreeFilename = v.GetString("save_tree_filename")
	opts.RootNoise = v.GetBool("root_noise")
	opts.DirichletAlpha = v.GetFloat64("dirichlet_alpha")
	opts.CacheSize = v.GetInt("cache_size")
	return opts, nil
}

func parsePickMethod(s string) mcts.PickMethod {
	if s == "strongest_prior" {
		return mcts.StrongestPrior
	}
	return mcts.MostVisited
}
