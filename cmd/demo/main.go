// Command demo drives the line-walker fixture through the parallel MCTS
// engine and the generic AI driver. There is no neural network here,
// just the engine searching against internal/linewalker's toy state so
// the whole stack (driver, engine, tree, primitives) can be exercised
// end to end from the command line.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/latticeforge/paragon/ai"
	"github.com/latticeforge/paragon/diagnostics"
	"github.com/latticeforge/paragon/internal/linewalker"
	"github.com/latticeforge/paragon/mcts"
)

var (
	configPath  = flag.String("config", "", "optional yaml/toml/json file of mcts.Options overrides")
	startPos    = flag.Int("start", 0, "starting position on the line")
	ticks       = flag.Int("ticks", linewalker.Goal+5, "maximum ticks to drive")
	dumpPath    = flag.String("dump", "", "if set, overrides Options.SaveTreeFilename")
	verbose     = flag.Bool("verbose", false, "log per-run progress to stderr, overriding Options.Verbose")
	verboseTime = flag.Duration("verbose-time", 0, "minimum interval between progress log lines, overriding Options.VerboseTime")
)

type lineState struct {
	pos     int
	tick    int
	maxTick int
}

func (s *lineState) Init() {}
func (s *lineState) PreAct() {}
func (s *lineState) Forward(a int) {
	s.pos += a
	if s.pos < 0 {
		s.pos = 0
	}
	if s.pos > linewalker.Goal {
		s.pos = linewalker.Goal
	}
}
func (s *lineState) IncTick() { s.tick++ }
func (s *lineState) Finalize() {
	fmt.Printf("finished at pos=%d after %d ticks\n", s.pos, s.tick)
}
func (s *lineState) PostAct() ai.TickResult {
	if s.pos == linewalker.Goal || s.tick+1 >= s.maxTick {
		return ai.Ended
	}
	return ai.Normal
}

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	opts := mcts.DefaultOptions()
	if *configPath != "" {
		loaded, err := diagnostics.LoadOptions(*configPath)
		if err != nil {
			log.Fatalf("load options: %v", err)
		}
		opts = loaded
	}
	if *dumpPath != "" {
		opts.SaveTreeFilename = *dumpPath
	}
	if *verbose {
		opts.Verbose = true
	}
	if *verboseTime > 0 {
		opts.VerboseTime = *verboseTime
	}

	engine := mcts.NewEngine[int](opts)
	if opts.Verbose {
		engine.SetLogger(log.Default())
	}
	if opts.SaveTreeFilename != "" {
		engine.SetDumpHook(diagnostics.DumpTree[int])
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			log.Printf("engine stop: %v", err)
		}
	}()

	toActor := func(s ai.State[int]) mcts.Actor[int] {
		ls := s.(*lineState)
		return linewalker.New(ls.pos)
	}
	adapter := ai.NewMCTSAdapter[int](engine, toActor, opts.PersistentTree)

	driver := ai.NewDriver[int]()
	driver.Register(adapter)

	state := &lineState{pos: *startPos, maxTick: *ticks}
	driver.MainLoop(state)
}
