// Package decode translates raw arena bytes at a program counter into a
// structured Instruction. It is decode-only: encoding a program from source
// text is the job of the (out-of-scope) assembler.
package decode

import (
	"fmt"

	"corewar/op"
)

// Operand is one resolved-at-decode-time operand descriptor. The numeric
// Value is the raw encoded payload (register index, direct literal, or
// indirect offset) — operand *resolution* against registers/arena happens
// at execute time, not here.
type Operand struct {
	Type  op.ParamType
	Value int32
}

// Instruction is a decoded opcode plus its operands, byte size and cycle
// cost. An Instruction with Invalid set (carrying only Size and
// Op.Cycles) represents a decode failure recovered as a no-op per spec.md
// §4.2/§7.
type Instruction struct {
	Op       op.OpCode
	Operands []Operand
	Size     int // Total bytes consumed, including opcode/encoding bytes.
	Invalid  bool
}

// MaxInstructionSize bounds how many bytes the decoder ever needs to peek:
// 1 opcode byte + 1 encoding byte + 3 operands of at most 4 bytes each.
const MaxInstructionSize = 1 + 1 + 3*4

// invalid builds the "invalid op" / decode-failure result: the process
// consumes size bytes (at least 1) at the opcode's nominal cost (or 1 cycle
// if the opcode itself couldn't be identified) and has no side effects.
func invalid(size, cycles int) Instruction {
	if size < 1 {
		size = 1
	}
	return Instruction{Size: size, Op: op.OpCode{Cycles: cycles}, Invalid: true}
}

// Decode reads an instruction out of buf, which must start at the target
// program counter and contain at least MaxInstructionSize bytes (the
// arena's modular Bytes() helper supplies this).
func Decode(buf []byte) Instruction {
	if len(buf) == 0 {
		return invalid(1, 1)
	}

	opcodeByte := buf[0]
	if !op.Valid(opcodeByte) {
		return invalid(1, 1)
	}
	oc := op.Table[opcodeByte]
	idx := 1

	var encodingByte byte
	if oc.EncodingByte {
		if idx >= len(buf) {
			return invalid(idx, oc.Cycles)
		}
		encodingByte = buf[idx]
		idx++
	}

	operands := make([]Operand, len(oc.ParamTypes))
	for i, permitted := range oc.ParamTypes {
		var t op.ParamType
		if oc.EncodingByte {
			shift := byte((3 - i) * 2)
			t = op.DecodeParamType((encodingByte >> shift) & 0b11)
			if t == 0 {
				return invalid(idx, oc.Cycles)
			}
		} else {
			// Opcodes without an encoding byte have exactly one permitted
			// type per position (spec.md §4.2 step 2 exemption list).
			t = permitted
		}
		if t&permitted == 0 {
			return invalid(idx, oc.Cycles)
		}

		size, val, err := decodeOperand(buf[idx:], t, oc)
		if err != nil {
			return invalid(idx, oc.Cycles)
		}
		operands[i] = Operand{Type: t, Value: val}
		idx += size
	}

	return Instruction{Op: oc, Operands: operands, Size: idx}
}

// decodeOperand reads one operand payload, returning its byte width and
// resolved raw value.
func decodeOperand(buf []byte, t op.ParamType, oc op.OpCode) (int, int32, error) {
	switch t {
	case op.TReg:
		if len(buf) < 1 {
			return 0, 0, fmt.Errorf("truncated register operand")
		}
		r := buf[0]
		if r < 1 || r > op.RegisterCount {
			// Register out of [1,16]: the whole instruction is a no-op of
			// its declared size/cost (spec.md §3 invariant), but we still
			// need to report how many bytes were consumed so the caller
			// can decide; signal via a sentinel value the executor will
			// reject (0 is never a valid 1-indexed register).
			return 1, 0, nil
		}
		return 1, int32(r), nil
	case op.TDir:
		size := oc.DirSize()
		if len(buf) < size {
			return 0, 0, fmt.Errorf("truncated direct operand")
		}
		if size == 2 {
			return 2, int32(int16(op.Endian.Uint16(buf[:2]))), nil
		}
		return 4, int32(op.Endian.Uint32(buf[:4])), nil
	case op.TInd:
		// Indirect operands are always a 2-byte signed offset, regardless
		// of the opcode's ParamMode (spec.md §4.1: IND_SIZE = 2).
		if len(buf) < 2 {
			return 0, 0, fmt.Errorf("truncated indirect operand")
		}
		return 2, int32(int16(op.Endian.Uint16(buf[:2]))), nil
	default:
		return 0, 0, fmt.Errorf("unresolved operand type")
	}
}
