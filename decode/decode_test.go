package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corewar/op"
)

func u32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func u16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

func pad(buf []byte) []byte {
	out := make([]byte, MaxInstructionSize)
	copy(out, buf)
	return out
}

func TestDecodeLive(t *testing.T) {
	buf := append([]byte{op.OpLive}, u32(1)...)
	ins := Decode(pad(buf))
	require.False(t, ins.Invalid)
	assert.Equal(t, byte(op.OpLive), ins.Op.Code)
	assert.Equal(t, 5, ins.Size)
	require.Len(t, ins.Operands, 1)
	assert.Equal(t, int32(1), ins.Operands[0].Value)
}

func TestDecodeLdDirect(t *testing.T) {
	// ld %5, r3: encoding byte 0b10_01_00_00 = 0x90.
	buf := []byte{op.OpLd, 0x90}
	buf = append(buf, u32(5)...)
	buf = append(buf, 3)
	ins := Decode(pad(buf))
	require.False(t, ins.Invalid)
	require.Len(t, ins.Operands, 2)
	assert.Equal(t, op.TDir, ins.Operands[0].Type)
	assert.Equal(t, int32(5), ins.Operands[0].Value)
	assert.Equal(t, op.TReg, ins.Operands[1].Type)
	assert.Equal(t, int32(3), ins.Operands[1].Value)
	assert.Equal(t, 7, ins.Size)
}

func TestDecodeLdIndirect(t *testing.T) {
	// ld @10, r2: encoding byte 0b11_01_00_00 = 0xD0.
	buf := []byte{op.OpLd, 0xD0}
	buf = append(buf, u16(10)...)
	buf = append(buf, 2)
	ins := Decode(pad(buf))
	require.False(t, ins.Invalid)
	assert.Equal(t, op.TInd, ins.Operands[0].Type)
	assert.Equal(t, int32(10), ins.Operands[0].Value)
	assert.Equal(t, 5, ins.Size)
}

func TestDecodeZjmpNoEncodingByte(t *testing.T) {
	buf := append([]byte{op.OpZjmp}, u16(0xFFFB)...) // -5 as int16.
	ins := Decode(pad(buf))
	require.False(t, ins.Invalid)
	assert.Equal(t, int32(-5), ins.Operands[0].Value)
	assert.Equal(t, 3, ins.Size)
}

func TestDecodeInvalidOpcodeByte(t *testing.T) {
	ins := Decode(pad([]byte{0, 0, 0, 0}))
	assert.True(t, ins.Invalid)
	assert.Equal(t, 1, ins.Size)

	ins = Decode(pad([]byte{17, 0, 0, 0}))
	assert.True(t, ins.Invalid)
	assert.Equal(t, 1, ins.Size)
}

func TestDecodeMismatchedOperandType(t *testing.T) {
	// add requires Reg,Reg,Reg; encode first operand as Direct (invalid).
	enc := byte(0b10_01_01_00) // op1=Dir(invalid for add), op2=Reg, op3=Reg.
	buf := []byte{op.OpAdd, enc, 0, 0, 0, 1, 2, 3}
	ins := Decode(pad(buf))
	assert.True(t, ins.Invalid)
}

func TestDecodeRegisterOutOfRangeIsNotMarkedInvalidAtDecodeTime(t *testing.T) {
	// aff r0: encoding byte 0b01_00_00_00 = 0x40, register payload 0 (out of [1,16]).
	buf := []byte{op.OpAff, 0x40, 0}
	ins := Decode(pad(buf))
	require.False(t, ins.Invalid)
	assert.Equal(t, int32(0), ins.Operands[0].Value)
	assert.Equal(t, 3, ins.Size)
}

func TestDecodeEmptyBuffer(t *testing.T) {
	ins := Decode(nil)
	assert.True(t, ins.Invalid)
}

func TestDecodeTruncatedAfterOpcode(t *testing.T) {
	ins := Decode([]byte{op.OpLive})
	assert.True(t, ins.Invalid)
	assert.Equal(t, 1, ins.Size)
}
