// Package vm is the Executor + Scheduler half of the Core War core: given
// an already-loaded arena, champion list and initial processes (see
// package loader), it drives the cycle-accurate round-robin interpreter
// described in spec.md §4.3-§4.4 and reports an Outcome.
//
// Mapping to the exit codes of spec.md §6.4 (left to the out-of-scope CLI):
//
//	0 - Outcome.Kind == OutcomeWinner or OutcomeDraw.
//	1 - a *loader.LoadError with Kind in {ErrBadMagic, ErrBodyTooLarge, ErrTruncated}.
//	2 - a *loader.LoadError with Kind in {ErrTooManyChampions, ErrDuplicateID, ErrInvalidID}.
//	3 - any other error (I/O, host failure) surfaced by the caller.
package vm
