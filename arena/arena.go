// Package arena implements the circular memory buffer every champion process
// reads and writes through. All addressing is modular: there is no such
// thing as an out-of-bounds access.
package arena

import "corewar/op"

// Arena is the shared, circular memory the VM executes inside of.
type Arena struct {
	mem []byte
	// owner and access track who last touched a byte and how, purely for
	// external observers (visualizers). Never consulted by VM semantics.
	owner  []int // champion id of the last writer, 0 if untouched.
	access []Access
}

// Access describes how a byte was last touched, for visualization only.
type Access int

const (
	AccessNone Access = iota
	AccessRead
	AccessWrite
)

// New allocates an Arena of the given size (spec.md default: op.MemSize).
func New(size int) *Arena {
	return &Arena{
		mem:    make([]byte, size),
		owner:  make([]int, size),
		access: make([]Access, size),
	}
}

// Len returns the arena size in bytes.
func (a *Arena) Len() int { return len(a.mem) }

func (a *Arena) mod(addr int) int {
	n := len(a.mem)
	addr %= n
	if addr < 0 {
		addr += n
	}
	return addr
}

// ReadByte returns the byte at addr, reduced modulo the arena size.
func (a *Arena) ReadByte(addr int) byte {
	i := a.mod(addr)
	a.access[i] = AccessRead
	return a.mem[i]
}

// WriteByte stores v at addr, reduced modulo the arena size, attributing the
// write to championID (0 means "no owner", used by the loader's initial
// blit before any process exists).
func (a *Arena) WriteByte(addr int, v byte, championID int) {
	i := a.mod(addr)
	a.mem[i] = v
	a.owner[i] = championID
	a.access[i] = AccessWrite
}

// ReadI32 reads 4 bytes big-endian starting at addr, each byte fetched
// independently modulo the arena size (crossing the wrap is legal).
func (a *Arena) ReadI32(addr int) uint32 {
	b0 := a.ReadByte(addr)
	b1 := a.ReadByte(addr + 1)
	b2 := a.ReadByte(addr + 2)
	b3 := a.ReadByte(addr + 3)
	return op.Endian.Uint32([]byte{b0, b1, b2, b3})
}

// ReadI16 reads 2 bytes big-endian starting at addr, each byte fetched
// independently modulo the arena size.
func (a *Arena) ReadI16(addr int) uint16 {
	b0 := a.ReadByte(addr)
	b1 := a.ReadByte(addr + 1)
	return op.Endian.Uint16([]byte{b0, b1})
}

// WriteI32 stores v big-endian across 4 bytes starting at addr, each byte
// write reduced modulo the arena size.
func (a *Arena) WriteI32(addr int, v uint32, championID int) {
	var b [4]byte
	op.Endian.PutUint32(b[:], v)
	for i, bb := range b {
		a.WriteByte(addr+i, bb, championID)
	}
}

// Memcpy copies len bytes from src to dst, byte-wise, each offset reduced
// modulo the arena size. Used by the loader to blit champion bodies.
func (a *Arena) Memcpy(dst, src int, length int, championID int) {
	// Read first in case src and dst regions overlap under the modulus.
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = a.ReadByte(src + i)
	}
	for i, b := range buf {
		a.WriteByte(dst+i, b, championID)
	}
}

// Blit writes a raw byte slice starting at dst, each offset modular.
func (a *Arena) Blit(dst int, data []byte, championID int) {
	for i, b := range data {
		a.WriteByte(dst+i, b, championID)
	}
}

// Bytes returns a copy of size bytes starting at addr, each offset modular.
// Used by the decoder to peek at upcoming instruction bytes without
// mutating owner/access bookkeeping.
func (a *Arena) Bytes(addr, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = a.mem[a.mod(addr+i)]
	}
	return out
}

// Snapshot is a read-only copy of arena state, safe for an external
// observer to hold onto after the VM has moved on to later cycles.
type Snapshot struct {
	Mem    []byte
	Owner  []int
	Access []Access
}

// Snapshot takes a deep copy of the current arena state. Intended to be
// called from the Engine's per-cycle hook (spec.md §5), never from inside
// an opcode handler.
func (a *Arena) Snapshot() Snapshot {
	s := Snapshot{
		Mem:    make([]byte, len(a.mem)),
		Owner:  make([]int, len(a.owner)),
		Access: make([]Access, len(a.access)),
	}
	copy(s.Mem, a.mem)
	copy(s.Owner, a.owner)
	copy(s.Access, a.access)
	return s
}
