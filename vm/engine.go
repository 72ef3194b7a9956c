// Package vm implements the Executor and Scheduler: it drives the global
// cycle counter, runs each live process's pending instruction when its
// cooldown expires, and applies the cycle-to-die liveness rule.
package vm

import (
	"fmt"

	"corewar/arena"
	"corewar/decode"
	"corewar/process"
)

// Engine is one running (or finished) match. Build one via loader.LoadMatch,
// not directly — the loader is responsible for champion/process placement.
type Engine struct {
	Config Config
	Arena  *arena.Arena

	Champions []*process.Champion
	Processes []*process.Process
	nextPID   int

	Cycle                  int
	CurCyclesToDie         int
	CyclesSinceCheck       int
	LiveCalls              int
	ChecksWithoutDecrement int

	// Events is a buffered channel of observability records. The scheduler
	// never blocks on it: once the buffer is full, further events are
	// dropped until the caller drains it.
	Events chan Event

	// OnCycle, if set, is invoked once per completed cycle with a fresh
	// arena snapshot (spec.md §5's "snapshot hook"). It must never block.
	OnCycle func(cycle int, snap arena.Snapshot)

	// Output receives one byte per 'aff' instruction, in addition to the
	// EventDisplay record (spec.md §6.3).
	Output ByteSink
}

// ByteSink is the caller-supplied sink for 'aff' output.
type ByteSink interface {
	WriteByte(b byte) error
}

// New builds an Engine from an already-populated arena, champion list and
// initial process set (one process per champion, as constructed by the
// loader). nextPID must be greater than every given process's ID.
func New(cfg Config, a *arena.Arena, champs []*process.Champion, procs []*process.Process, nextPID int) *Engine {
	return &Engine{
		Config:         cfg,
		Arena:          a,
		Champions:      champs,
		Processes:      procs,
		nextPID:        nextPID,
		CurCyclesToDie: cfg.CyclesToDie,
		Events:         make(chan Event, 64),
	}
}

func (e *Engine) championByID(id int) *process.Champion {
	for _, c := range e.Champions {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (e *Engine) emit(typ EventType, p *process.Process, msg string) {
	select {
	case e.Events <- newEvent(typ, e.Cycle, p, msg):
	default:
		// Events is an observability side channel; a full buffer must never
		// stall the deterministic core. Drop rather than block.
	}
}

func (e *Engine) emitByte(p *process.Process, b byte) {
	ev := newEvent(EventDisplay, e.Cycle, p, fmt.Sprintf("%c", b))
	ev.Byte = b
	select {
	case e.Events <- ev:
	default:
	}
	if e.Output != nil {
		_ = e.Output.WriteByte(b) // Best effort; spec.md §6.3 mandates no buffering contract.
	}
}

func (e *Engine) aliveChampions() []*process.Champion {
	var out []*process.Champion
	for _, c := range e.Champions {
		if !c.Dead {
			out = append(out, c)
		}
	}
	return out
}

// Run drives cycles until a winner, a draw, or a requested dump halts the
// match (spec.md §6.2's `run(champions, options) -> outcome`).
func (e *Engine) Run(opts RunOptions) Outcome {
	for {
		outcome, done := e.runCycle()
		if done {
			return outcome
		}

		if e.OnCycle != nil {
			e.OnCycle(e.Cycle, e.Arena.Snapshot())
		}

		if opts.HasDumpAt && e.Cycle == opts.DumpAt {
			return Outcome{Kind: OutcomeDumped, Cycle: e.Cycle, Snapshot: e.Arena.Snapshot()}
		}
		if opts.MaxCycles > 0 && e.Cycle >= opts.MaxCycles {
			// spec.md §7: Draw only if max_cycles expires with MULTIPLE live
			// champions. Exactly one survivor still wins, even though nobody
			// was ever eliminated to produce that survivor (the single-
			// champion exemption in runCycle means this is the only path a
			// solo champion's match ever ends through).
			if alive := e.aliveChampions(); len(alive) == 1 {
				return Outcome{Kind: OutcomeWinner, WinnerID: alive[0].ID, Cycle: e.Cycle}
			}
			return Outcome{Kind: OutcomeDraw, Cycle: e.Cycle}
		}
	}
}

// runCycle executes exactly one cycle (spec.md §4.4's "Main loop").
func (e *Engine) runCycle() (Outcome, bool) {
	e.Cycle++
	e.CyclesSinceCheck++

	var forked []*process.Process
	for _, p := range e.Processes {
		if p.Cached == nil {
			buf := e.Arena.Bytes(p.PC, decode.MaxInstructionSize)
			ins := decode.Decode(buf)
			p.Cached = &process.Cached{Instruction: ins, Cooldown: ins.Op.Cycles - 1}
			continue
		}
		if p.Cached.Cooldown > 0 {
			p.Cached.Cooldown--
			continue
		}

		ins := p.Cached.Instruction
		child, advance := e.step(p, ins)
		if advance {
			p.PC = mod(p.PC+ins.Size, e.Arena.Len())
		}
		p.Cached = nil
		if child != nil {
			forked = append(forked, child)
		}
	}
	e.Processes = append(e.Processes, forked...)

	if e.CyclesSinceCheck >= e.CurCyclesToDie {
		if outcome, done := e.deathCheck(); done {
			return outcome, true
		}
	}

	if len(e.Processes) == 0 {
		return e.declareWinner(), true
	}
	// Only an ELIMINATION down to one survivor ends the match early
	// (spec.md's Overview: "all but one champion's processes have been
	// starved"). A match that started with a single champion has nobody to
	// eliminate, so it runs to its own death-check/max-cycles bound instead
	// of winning trivially at cycle 1 (spec.md §8 Scenario 1 expects it to
	// keep accumulating 'live' calls for up to max_cycles).
	if len(e.Champions) > 1 {
		if alive := e.aliveChampions(); len(alive) <= 1 {
			if len(alive) == 1 {
				return Outcome{Kind: OutcomeWinner, WinnerID: alive[0].ID, Cycle: e.Cycle}, true
			}
			return e.declareWinner(), true
		}
	}

	return Outcome{}, false
}

// deathCheck implements spec.md §4.4 step 4: it culls champions that failed
// to stay alive within the current window, then re-tunes CurCyclesToDie.
func (e *Engine) deathCheck() (Outcome, bool) {
	threshold := e.Cycle - e.CurCyclesToDie

	survivors := map[int]bool{}
	for _, c := range e.Champions {
		if c.Dead {
			continue
		}
		if c.LastLiveCycle < 0 || c.LastLiveCycle < threshold {
			c.Dead = true
			e.emit(EventDead, nil, fmt.Sprintf("champion %d failed the cycle-to-die check", c.ID))
			continue
		}
		survivors[c.ID] = true
	}
	kept := e.Processes[:0:0]
	for _, p := range e.Processes {
		if survivors[p.Champion.ID] {
			kept = append(kept, p)
		}
	}
	e.Processes = kept

	if e.LiveCalls >= e.Config.NumLives || e.ChecksWithoutDecrement >= e.Config.MaxChecks {
		e.CurCyclesToDie -= e.Config.CycleDelta
		e.ChecksWithoutDecrement = 0
	} else {
		e.ChecksWithoutDecrement++
	}
	e.LiveCalls = 0
	e.CyclesSinceCheck = 0

	if e.CurCyclesToDie <= 0 {
		e.emit(EventGameOver, nil, "cycle-to-die exhausted")
		return e.declareWinner(), true
	}
	return Outcome{}, false
}

// declareWinner implements spec.md §4.4 step 5's tie-break rule.
func (e *Engine) declareWinner() Outcome {
	var best *process.Champion
	for _, c := range e.Champions {
		if best == nil {
			best = c
			continue
		}
		if c.LastLiveCycle > best.LastLiveCycle || (c.LastLiveCycle == best.LastLiveCycle && c.ID > best.ID) {
			best = c
		}
	}
	if best == nil {
		return Outcome{Kind: OutcomeDraw, Cycle: e.Cycle}
	}
	if best.LastLiveCycle < 0 {
		// No champion ever issued 'live': the last-loaded champion wins.
		best = e.Champions[len(e.Champions)-1]
	}
	e.emit(EventGameOver, nil, fmt.Sprintf("champion %d wins", best.ID))
	return Outcome{Kind: OutcomeWinner, WinnerID: best.ID, Cycle: e.Cycle}
}
