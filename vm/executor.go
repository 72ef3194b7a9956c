package vm

import (
	"corewar/decode"
	"corewar/op"
	"corewar/process"
)

// mod reduces v modulo m into [0, m). Used only for the final circular
// address/PC wrap — the IDX_MOD reduction applied to an operand's raw value
// before it is added to PC must keep that value's sign (Go's native `%`),
// exactly like the final wrap a negative offset still needs to move
// backward rather than forward by a spurious multiple of IdxMod.
func mod(v, m int) int {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

// readSource resolves a Register/Direct/Indirect operand to its signed
// 32-bit value, per spec.md §4.3's operand-resolution rules. long disables
// the IDX_MOD reduction on indirect operands (lld/lldi/lfork).
func (e *Engine) readSource(p *process.Process, o decode.Operand, long bool) int32 {
	switch o.Type {
	case op.TReg:
		return p.Registers[o.Value-1]
	case op.TDir:
		return o.Value
	case op.TInd:
		addr := int(p.PC) + int(o.Value)
		if !long {
			// IDX_MOD reduction keeps the sign of the offset (a negative
			// operand must still move backward); only the final arena
			// address wraps non-negative, handled inside Arena itself.
			addr = int(p.PC) + int(o.Value)%e.Config.IdxMod
		}
		return int32(e.Arena.ReadI32(addr))
	default:
		return 0
	}
}

// validRegisters reports whether every Register-typed operand of ins names
// a register in [1,16]. spec.md §3: otherwise the whole instruction is a
// no-op of its declared size/cost.
func validRegisters(ins decode.Instruction) bool {
	for _, o := range ins.Operands {
		if o.Type == op.TReg && (o.Value < 1 || int(o.Value) > op.RegisterCount) {
			return false
		}
	}
	return true
}

func setCarry(p *process.Process, v int32) {
	p.Carry = v == 0
}

// execLive implements opcode 1.
func (e *Engine) execLive(p *process.Process, ins decode.Instruction) {
	e.LiveCalls++
	targetID := int(ins.Operands[0].Value)
	champ := e.championByID(targetID)
	if champ == nil || champ.Dead {
		e.emit(EventLiveMiss, p, "live: unknown or dead champion")
		return
	}
	champ.LastLiveCycle = e.Cycle
	p.LastLiveCycle = e.Cycle
	e.emit(EventLive, p, "live")
}

// execLd implements opcodes 2 (ld) and 13 (lld, long=true).
func (e *Engine) execLd(p *process.Process, ins decode.Instruction, long bool) {
	v := e.readSource(p, ins.Operands[0], long)
	r := ins.Operands[1].Value - 1
	p.Registers[r] = v
	setCarry(p, v)
}

// execSt implements opcode 3.
func (e *Engine) execSt(p *process.Process, ins decode.Instruction) {
	src := p.Registers[ins.Operands[0].Value-1]
	dst := ins.Operands[1]
	if dst.Type == op.TReg {
		p.Registers[dst.Value-1] = src
		return
	}
	addr := int(p.PC) + int(dst.Value)%e.Config.IdxMod
	e.Arena.WriteI32(addr, uint32(src), p.Champion.ID)
}

// execMath implements add/sub/and/or/xor (opcodes 4-8).
func (e *Engine) execMath(p *process.Process, ins decode.Instruction, fn func(a, b int32) int32) {
	a := e.readSource(p, ins.Operands[0], false)
	b := e.readSource(p, ins.Operands[1], false)
	r := ins.Operands[2].Value - 1
	result := fn(a, b)
	p.Registers[r] = result
	setCarry(p, result)
}

// execZjmp implements opcode 9. Returns true if it overrode the PC (caller
// must not apply the normal size-based advance in that case).
func (e *Engine) execZjmp(p *process.Process, ins decode.Instruction) bool {
	if !p.Carry {
		return false
	}
	offset := int(ins.Operands[0].Value) % e.Config.IdxMod
	p.PC = mod(int(p.PC)+offset, e.Arena.Len())
	return true
}

// readIndex16 resolves an operand used as a 16-bit index term in
// ldi/sti (spec.md §4.3: ldi/sti/lldi's non-final operands are read as
// int16, never as a full 32-bit arena fetch for Direct/Register).
func (e *Engine) readIndex16(p *process.Process, o decode.Operand, long bool) int16 {
	switch o.Type {
	case op.TReg:
		return int16(p.Registers[o.Value-1])
	case op.TDir:
		return int16(o.Value)
	case op.TInd:
		addr := int(p.PC) + int(o.Value)
		if !long {
			addr = int(p.PC) + int(o.Value)%e.Config.IdxMod
		}
		return int16(e.Arena.ReadI16(addr))
	default:
		return 0
	}
}

// execLdi implements opcodes 10 (ldi) and 14 (lldi, long=true).
func (e *Engine) execLdi(p *process.Process, ins decode.Instruction, long bool) {
	s1 := e.readIndex16(p, ins.Operands[0], long)
	s2 := e.readIndex16(p, ins.Operands[1], long)
	sum := int(s1) + int(s2)
	addr := int(p.PC) + sum
	if !long {
		addr = int(p.PC) + sum%e.Config.IdxMod
	}
	r := ins.Operands[2].Value - 1
	v := int32(e.Arena.ReadI32(addr))
	p.Registers[r] = v
	setCarry(p, v)
}

// execSti implements opcode 11.
func (e *Engine) execSti(p *process.Process, ins decode.Instruction) {
	src := p.Registers[ins.Operands[0].Value-1]
	t1 := e.readIndex16(p, ins.Operands[1], false)
	t2 := e.readIndex16(p, ins.Operands[2], false)
	addr := int(p.PC) + (int(t1)+int(t2))%e.Config.IdxMod
	e.Arena.WriteI32(addr, uint32(src), p.Champion.ID)
}

// execFork implements opcodes 12 (fork) and 15 (lfork, long=true). The new
// process is returned for the caller to append after the current cycle
// finishes (spec.md §4.4 step 3: forks are visible starting next cycle).
func (e *Engine) execFork(p *process.Process, ins decode.Instruction, long bool) *process.Process {
	offset := int(ins.Operands[0].Value)
	if !long {
		offset = offset % e.Config.IdxMod
	}
	pc := mod(int(p.PC)+offset, e.Arena.Len())
	childID := e.nextPID
	e.nextPID++
	return p.Fork(childID, pc)
}

// execAff implements opcode 16.
func (e *Engine) execAff(p *process.Process, ins decode.Instruction) {
	r := ins.Operands[0].Value - 1
	b := byte(uint32(p.Registers[r]) % 256)
	e.emitByte(p, b)
}

func addI32(a, b int32) int32 { return a + b }
func subI32(a, b int32) int32 { return a - b }
func andI32(a, b int32) int32 { return a & b }
func orI32(a, b int32) int32  { return a | b }
func xorI32(a, b int32) int32 { return a ^ b }

// step executes the single cached, ready instruction of p, fetching
// operands fresh against the CURRENT arena state (spec.md §5/§9: never
// latch operands at decode time). Returns a forked child process, if any,
// and whether the PC should advance by ins.Size (false only when zjmp took
// the jump and already moved the PC itself).
func (e *Engine) step(p *process.Process, ins decode.Instruction) (child *process.Process, advance bool) {
	if ins.Invalid || !validRegisters(ins) {
		return nil, true
	}

	switch ins.Op.Code {
	case op.OpLive:
		e.execLive(p, ins)
	case op.OpLd:
		e.execLd(p, ins, false)
	case op.OpSt:
		e.execSt(p, ins)
	case op.OpAdd:
		e.execMath(p, ins, addI32)
	case op.OpSub:
		e.execMath(p, ins, subI32)
	case op.OpAnd:
		e.execMath(p, ins, andI32)
	case op.OpOr:
		e.execMath(p, ins, orI32)
	case op.OpXor:
		e.execMath(p, ins, xorI32)
	case op.OpZjmp:
		if e.execZjmp(p, ins) {
			return nil, false
		}
	case op.OpLdi:
		e.execLdi(p, ins, false)
	case op.OpSti:
		e.execSti(p, ins)
	case op.OpFork:
		child = e.execFork(p, ins, false)
	case op.OpLld:
		e.execLd(p, ins, true)
	case op.OpLldi:
		e.execLdi(p, ins, true)
	case op.OpLfork:
		child = e.execFork(p, ins, true)
	case op.OpAff:
		e.execAff(p, ins)
	}
	return child, true
}
