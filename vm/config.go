package vm

import (
	"corewar/arena"
	"corewar/op"
)

// Config holds the tunable constants of a match. Building one is the
// caller's job (spec.md §1: configuration *loading* is out of scope); this
// module only defines the shape and sane defaults.
type Config struct {
	MemSize     int // Arena size.
	IdxMod      int // Secondary index modulus.
	CyclesToDie int // Initial liveness window.
	CycleDelta  int // Decrement applied to CyclesToDie.
	NumLives    int // 'live' calls required (globally) to trigger a decrement.
	MaxChecks   int // Consecutive insufficient checks before forcing a decrement.
}

// DefaultConfig returns the classic Core War constants from spec.md §3/§4.4.
func DefaultConfig() Config {
	return Config{
		MemSize:     op.MemSize,
		IdxMod:      op.IdxMod,
		CyclesToDie: op.CyclesToDie,
		CycleDelta:  op.CycleDelta,
		NumLives:    op.NumLives,
		MaxChecks:   op.MaxChecks,
	}
}

// RunOptions mirrors spec.md §6.2's `run(champions, options)` Options.
type RunOptions struct {
	MaxCycles int // 0 means unbounded.
	DumpAt    int // Cycle at which to halt and dump the arena; used only when HasDumpAt is set.
	HasDumpAt bool
}

// OutcomeKind discriminates the three shapes an Outcome can take.
type OutcomeKind int

const (
	OutcomeWinner OutcomeKind = iota
	OutcomeDraw
	OutcomeDumped
)

// Outcome is the result of running a match to completion (spec.md §7).
type Outcome struct {
	Kind     OutcomeKind
	WinnerID int            // Valid when Kind == OutcomeWinner.
	Cycle    int            // Cycle at which the outcome was produced.
	Snapshot arena.Snapshot // Valid when Kind == OutcomeDumped.
}
