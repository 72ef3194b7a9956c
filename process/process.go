// Package process defines the execution-context and champion-metadata
// records the scheduler and executor operate on.
package process

import "corewar/decode"

// Champion is the metadata record created by the loader for each loaded
// program. It is immortal for the duration of a match.
type Champion struct {
	ID            int
	Name          string
	Comment       string
	BodyLength    int
	LastLiveCycle int // Cycle index of the most recent 'live' naming this champion. -1 if never.
	Dead          bool
}

// Process is a live execution context owned by a Champion.
type Process struct {
	ID        int
	Champion  *Champion
	Registers [16]int32
	PC        int
	Carry     bool

	// Pending-instruction cache: the decoded op waiting to execute, plus
	// how many cycles remain before it does. A nil Cached means "nothing
	// cached, decode next".
	Cached *Cached

	LastLiveCycle int // Per-process liveness bookkeeping; -1 if never live.

	// Generation is incremented on fork, purely for external diagnostics/
	// snapshotting. Never read by any opcode handler.
	Generation int
}

// Cached holds a decoded instruction awaiting execution.
type Cached struct {
	Instruction decode.Instruction
	Cooldown    int // Cycles remaining before execution (cost - 1 at decode time).
}

// New creates a fresh process for championID at the given PC, with r1
// seeded to -championID per spec.md §4.5.
func New(id int, champ *Champion, pc int) *Process {
	p := &Process{
		ID:            id,
		Champion:      champ,
		PC:            pc,
		LastLiveCycle: -1,
	}
	p.Registers[0] = int32(-champ.ID)
	return p
}

// Fork returns a child process inheriting the parent's registers, carry
// and champion, at the given PC. The child's cache is empty and its
// Generation is parent's + 1 (spec.md §3: "Forked children are references,
// not deep copies — registers are ... copied by value").
func (p *Process) Fork(childID, pc int) *Process {
	child := *p
	child.ID = childID
	child.PC = pc
	child.Cached = nil
	child.Generation = p.Generation + 1
	return &child
}
