// Package loader parses champion .cor binaries, validates them, and seeds
// a fresh Engine's arena and process list. This is the only place a raw
// champion byte slice turns into VM state; the source-to-binary assembler
// that produces those bytes is out of scope (spec.md §1).
package loader

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"

	"corewar/arena"
	"corewar/op"
	"corewar/process"
	"corewar/vm"
)

// LoadError wraps one of the fatal, pre-match failure kinds of spec.md §7.
type LoadError struct {
	Kind ErrorKind
	File string // Caller-supplied identifier (path, champion name, index...).
	Err  error
}

// ErrorKind enumerates the ways a .cor can be rejected.
type ErrorKind int

const (
	ErrBadMagic ErrorKind = iota
	ErrBodyTooLarge
	ErrTruncated
	ErrInvalidID
	ErrTooManyChampions
	ErrDuplicateID
)

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %q: %s", e.File, e.Err)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause see through to the underlying cause.
func (e *LoadError) Cause() error { return e.Err }

func newLoadError(kind ErrorKind, file string, err error) *LoadError {
	return &LoadError{Kind: kind, File: file, Err: err}
}

// Binary is a parsed (but not yet placed) champion binary.
type Binary struct {
	Name       string
	Comment    string
	BodyLength int
	Body       []byte
}

// Parse validates a .cor buffer's header (magic, body length) and returns
// its decoded fields. Implements spec.md §4.5's per-champion verification
// and §6.1's binary layout.
func Parse(file string, data []byte) (*Binary, error) {
	if len(data) < op.HeaderSize {
		return nil, newLoadError(ErrTruncated, file, errors.Errorf("file is %d bytes, need at least %d for the header", len(data), op.HeaderSize))
	}

	magic := op.Endian.Uint32(data[0:4])
	if magic != op.CorewarMagic {
		return nil, newLoadError(ErrBadMagic, file, errors.Errorf("bad magic 0x%08x, want 0x%08x", magic, op.CorewarMagic))
	}

	name := nulTerminated(data[4 : 4+op.ProgNameLength])
	bodyLenOff := 4 + op.ProgNameLength + 4 // Name field, then 4 bytes padding.
	bodyLen := int(op.Endian.Uint32(data[bodyLenOff : bodyLenOff+4]))
	if bodyLen > op.ChampMaxSize {
		return nil, newLoadError(ErrBodyTooLarge, file, errors.Errorf("body length %d exceeds max %d", bodyLen, op.ChampMaxSize))
	}

	commentOff := bodyLenOff + 4
	comment := nulTerminated(data[commentOff : commentOff+op.CommentLength])

	body := data[op.HeaderSize:]
	if len(body) < bodyLen {
		return nil, newLoadError(ErrTruncated, file, errors.Errorf("declared body length %d but only %d bytes follow the header", bodyLen, len(body)))
	}
	body = body[:bodyLen]

	return &Binary{Name: name, Comment: comment, BodyLength: bodyLen, Body: body}, nil
}

// Info returns a champion's metadata without placing it in an arena.
// Implements spec.md §6.2's `info(champion) -> metadata` entry point.
func Info(file string, data []byte) (*Binary, error) {
	return Parse(file, data)
}

func nulTerminated(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Options controls placement for LoadMatch (spec.md §6.2).
type Options struct {
	// InitialAddresses overrides the default i*(MemSize/N) spacing,
	// keyed by champion index i (0-based, in input order).
	InitialAddresses map[int]int
	// ChampionIDs overrides the default 1..N id assignment, keyed by
	// champion index (0-based, in input order).
	ChampionIDs map[int]int
}

// LoadMatch parses every binary, validates the champion count and id
// assignment, blits bodies into a fresh arena, and returns a ready-to-run
// Engine with one initial process per champion (spec.md §4.5).
func LoadMatch(files []string, bodies [][]byte, cfg vm.Config, opts Options) (*vm.Engine, error) {
	if len(bodies) == 0 {
		return nil, newLoadError(ErrTooManyChampions, "", errors.New("no champions to load"))
	}
	if len(bodies) > op.MaxPlayers {
		return nil, newLoadError(ErrTooManyChampions, "", errors.Errorf("%d champions exceeds max %d", len(bodies), op.MaxPlayers))
	}

	ids := make([]int, len(bodies))
	seen := map[int]bool{}
	for i := range bodies {
		id := i + 1
		if opts.ChampionIDs != nil {
			if v, ok := opts.ChampionIDs[i]; ok {
				id = v
			}
		}
		if id < 1 || id > op.MaxPlayers {
			return nil, newLoadError(ErrInvalidID, fileAt(files, i), errors.Errorf("champion id %d out of range [1,%d]", id, op.MaxPlayers))
		}
		if seen[id] {
			return nil, newLoadError(ErrDuplicateID, fileAt(files, i), errors.Errorf("duplicate champion id %d", id))
		}
		seen[id] = true
		ids[i] = id
	}

	a := arena.New(cfg.MemSize)
	champs := make([]*process.Champion, len(bodies))
	procs := make([]*process.Process, len(bodies))
	nextPID := 1

	for i, data := range bodies {
		bin, err := Parse(fileAt(files, i), data)
		if err != nil {
			return nil, errors.Wrapf(err, "load champion %d", ids[i])
		}

		addr := i * (cfg.MemSize / len(bodies)) // Position in the input list, not champion id (spec.md §4.5).
		if opts.InitialAddresses != nil {
			if v, ok := opts.InitialAddresses[i]; ok {
				addr = v
			}
		}
		addr = ((addr % cfg.MemSize) + cfg.MemSize) % cfg.MemSize

		champ := &process.Champion{
			ID:            ids[i],
			Name:          bin.Name,
			Comment:       bin.Comment,
			BodyLength:    bin.BodyLength,
			LastLiveCycle: -1,
		}
		champs[i] = champ

		a.Blit(addr, bin.Body, champ.ID)

		procs[i] = process.New(nextPID, champ, addr)
		nextPID++
	}

	return vm.New(cfg, a, champs, procs, nextPID), nil
}

func fileAt(files []string, i int) string {
	if i < len(files) {
		return files[i]
	}
	return fmt.Sprintf("champion-%d", i+1)
}
