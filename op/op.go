// Package op defines the Core War instruction set: opcodes, operand
// encodings, cycle costs and the constants shared by every other package.
package op

import "encoding/binary"

// Endian is the byte order used for every multi-byte value in the arena
// and in champion binaries.
var Endian = binary.BigEndian

// VM-wide sizing constants.
const (
	MemSize       = 4096        // Size of the circular memory arena.
	IdxMod        = MemSize / 8 // Secondary modulus for index-addressed operands.
	MaxPlayers    = 4           // Maximum number of champions in a match.
	RegisterCount = 16          // r1 <-> r16.
)

// Scheduler defaults.
const (
	CyclesToDie = 1536 // Initial liveness window.
	CycleDelta  = 5    // Decrement applied to CyclesToDie.
	NumLives    = 40   // Number of 'live' calls required to trigger a decrement.
	MaxChecks   = 10   // Consecutive insufficient checks before forcing a decrement.
)

// ChampMaxSize is the largest code body the loader will accept (spec.md
// §4.5: 682 bytes). The formula's own annotation in spec.md reads
// "MEM_SIZE/MAX_PLAYERS/6", but that evaluates to 170, not the stated 682;
// the numeric value is authoritative, and MEM_SIZE/6 is what actually
// produces it.
const ChampMaxSize = MemSize / 6

// Header constants, see the .cor format (spec.md §6.1).
const (
	ProgNameLength = 128
	CommentLength  = 2048
	CorewarMagic   = 0x00ea83f3
	HeaderSize     = 2884
)

// ParamType is a bitmask of the operand kinds an opcode parameter may take.
type ParamType int

const (
	TReg ParamType = 1 << iota // Register.
	TDir                       // Direct (literal) value.
	TInd                       // Indirect (arena-relative) value.
)

// Encoding returns the 2-bit field used in the operand-encoding byte.
func (pt ParamType) Encoding() byte {
	switch pt {
	case TReg:
		return 0b01
	case TDir:
		return 0b10
	case TInd:
		return 0b11
	default:
		return 0b00
	}
}

// DecodeParamType reverses Encoding, returning 0 for an absent/invalid field.
func DecodeParamType(b byte) ParamType {
	switch b & 0b11 {
	case 0b01:
		return TReg
	case 0b10:
		return TDir
	case 0b11:
		return TInd
	default:
		return 0
	}
}

func (pt ParamType) String() string {
	switch pt {
	case TReg:
		return "register"
	case TDir:
		return "direct"
	case TInd:
		return "indirect"
	default:
		return "unknown"
	}
}

// ParamMode controls how a direct/indirect operand is sized and reduced.
type ParamMode int

const (
	ModeDynamic ParamMode = iota // Size/reduction depend on the resolved ParamType.
	ModeIndex                    // Always a 2-byte index value, IDX_MOD-reduced at use.
)

// OpCode describes one of the 16 Core War instructions.
type OpCode struct {
	Name         string
	Code         byte
	Cycles       int
	ParamTypes   []ParamType // Permitted-type bitmask per operand position.
	ParamMode    ParamMode
	EncodingByte bool // Whether the instruction carries an operand-encoding byte.
	SetCarry     bool
	Long         bool // "long" variant (lld/lldi/lfork): no IDX_MOD reduction.
}

// Opcode byte values.
const (
	OpLive  = 1
	OpLd    = 2
	OpSt    = 3
	OpAdd   = 4
	OpSub   = 5
	OpAnd   = 6
	OpOr    = 7
	OpXor   = 8
	OpZjmp  = 9
	OpLdi   = 10
	OpSti   = 11
	OpFork  = 12
	OpLld   = 13
	OpLldi  = 14
	OpLfork = 15
	OpAff   = 16
)

// Table is indexed by opcode byte; index 0 is reserved/invalid.
var Table = [17]OpCode{
	{}, // 0: no instruction decodes to this; any byte outside [1,16] is "invalid op".
	{Name: "live", Code: OpLive, Cycles: 10, ParamTypes: []ParamType{TDir}},
	{Name: "ld", Code: OpLd, Cycles: 5, ParamTypes: []ParamType{TDir | TInd, TReg}, EncodingByte: true, SetCarry: true},
	{Name: "st", Code: OpSt, Cycles: 5, ParamTypes: []ParamType{TReg, TReg | TInd}, EncodingByte: true},
	{Name: "add", Code: OpAdd, Cycles: 10, ParamTypes: []ParamType{TReg, TReg, TReg}, EncodingByte: true, SetCarry: true},
	{Name: "sub", Code: OpSub, Cycles: 10, ParamTypes: []ParamType{TReg, TReg, TReg}, EncodingByte: true, SetCarry: true},
	{Name: "and", Code: OpAnd, Cycles: 6, ParamTypes: []ParamType{TReg | TDir | TInd, TReg | TDir | TInd, TReg}, EncodingByte: true, SetCarry: true},
	{Name: "or", Code: OpOr, Cycles: 6, ParamTypes: []ParamType{TReg | TDir | TInd, TReg | TDir | TInd, TReg}, EncodingByte: true, SetCarry: true},
	{Name: "xor", Code: OpXor, Cycles: 6, ParamTypes: []ParamType{TReg | TDir | TInd, TReg | TDir | TInd, TReg}, EncodingByte: true, SetCarry: true},
	{Name: "zjmp", Code: OpZjmp, Cycles: 20, ParamTypes: []ParamType{TDir}, ParamMode: ModeIndex},
	{Name: "ldi", Code: OpLdi, Cycles: 25, ParamTypes: []ParamType{TReg | TDir | TInd, TReg | TDir, TReg}, ParamMode: ModeIndex, EncodingByte: true, SetCarry: true},
	{Name: "sti", Code: OpSti, Cycles: 25, ParamTypes: []ParamType{TReg, TReg | TDir | TInd, TReg | TDir}, ParamMode: ModeIndex, EncodingByte: true},
	{Name: "fork", Code: OpFork, Cycles: 800, ParamTypes: []ParamType{TDir}, ParamMode: ModeIndex},
	{Name: "lld", Code: OpLld, Cycles: 10, ParamTypes: []ParamType{TDir | TInd, TReg}, EncodingByte: true, SetCarry: true, Long: true},
	{Name: "lldi", Code: OpLldi, Cycles: 50, ParamTypes: []ParamType{TReg | TDir | TInd, TReg | TDir, TReg}, ParamMode: ModeIndex, EncodingByte: true, SetCarry: true, Long: true},
	{Name: "lfork", Code: OpLfork, Cycles: 1000, ParamTypes: []ParamType{TDir}, ParamMode: ModeIndex, Long: true},
	{Name: "aff", Code: OpAff, Cycles: 2, ParamTypes: []ParamType{TReg}, EncodingByte: true},
}

// Valid reports whether b is a decodable opcode byte ([1,16]).
func Valid(b byte) bool {
	return b >= 1 && b <= OpAff
}

// DirSize returns the byte width of a Direct operand for this opcode.
// Short-direct opcodes (those whose directs are IDX-reduced index values)
// use 2 bytes; all others use 4.
func (o OpCode) DirSize() int {
	if o.ParamMode == ModeIndex {
		return 2
	}
	return 4
}
