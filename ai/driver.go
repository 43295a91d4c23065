package ai

// Driver runs the generic game loop over a State[A], ticking every
// registered bot in registration order and the spectator (if any) last.
type Driver[A any] struct {
	bots      []AI[A]
	spectator AI[A]
	nextID    int
}

// NewDriver returns an empty Driver.
func NewDriver[A any]() *Driver[A] {
	return &Driver[A]{}
}

// Register adds a bot, assigning it a stable id in registration order.
func (d *Driver[A]) Register(bot AI[A]) {
	d.nextID++
	bot.SetID(d.nextID)
	d.bots = append(d.bots, bot)
}

// SetSpectator registers a bot that acts every tick, after every other
// bot, and does not participate in frame-skip scheduling.
func (d *Driver[A]) SetSpectator(spectator AI[A]) {
	d.nextID++
	spectator.SetID(d.nextID)
	d.spectator = spectator
}

func frameSkipOf[A any](bot AI[A]) int {
	if fs, ok := bot.(FrameSkipped); ok {
		if k := fs.FrameSkip(); k > 0 {
			return k
		}
	}
	return 1
}

// act runs one Act call against state and applies the resulting action
// whenever Act returns true, even if it also set done. It returns whether
// the tick should abort: Act returned false, or it set done.
func act[A any](bot AI[A], state State[A]) (abort bool) {
	var out A
	var done bool
	if !bot.Act(state, &out, &done) {
		return true
	}
	state.Forward(out)
	return done
}

// MainLoop runs state.Init, then ticks every registered bot in
// registration order (skipping ticks per FrameSkipped), the spectator
// last, until State.PostAct reports a non-Normal result or a bot signals
// done. It finishes with one final flush Act pass, GameEnd on every
// participant, and State.Finalize.
func (d *Driver[A]) MainLoop(state State[A]) {
	state.Init()

	tick := 0
	for {
		state.PreAct()

		aborted := false
		for _, bot := range d.bots {
			if tick%frameSkipOf[A](bot) != 0 {
				continue
			}
			if act(bot, state) {
				aborted = true
				break
			}
		}
		if !aborted && d.spectator != nil {
			aborted = act(d.spectator, state)
		}

		result := state.PostAct()
		state.IncTick()
		tick++

		if aborted || result != Normal {
			break
		}
	}

	for _, bot := range d.bots {
		var out A
		var done bool
		bot.Act(state, &out, &done)
	}
	if d.spectator != nil {
		var out A
		var done bool
		d.spectator.Act(state, &out, &done)
	}

	for _, bot := range d.bots {
		bot.GameEnd()
	}
	if d.spectator != nil {
		d.spectator.GameEnd()
	}
	state.Finalize()
}
