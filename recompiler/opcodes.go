package recompiler

import (
	"github.com/massung/chip8dynarec/chip8"
	"github.com/massung/chip8dynarec/internal/x64"
)

// baseReg holds the CoreState pointer for the lifetime of a compiled
// block; it is callee-saved so the emitted code can use it across calls
// without the caller noticing it was ever touched.
const baseReg = x64.RBX

// scratch1/scratch2 are caller-saved temporaries free to clobber between
// opcodes within a block; nothing in a block's body needs to survive a
// register across opcode boundaries except baseReg.
const (
	scratch1 = x64.RAX
	scratch2 = x64.RCX
)

// frameBytes is the stack space Prologue reserves, kept 16-byte aligned
// per the System V ABI. No emitted opcode spills to it today; a block
// never calls back into Go, so there is no callee whose own prologue
// needs a properly aligned frame to land in.
const frameBytes = 16

// nativeCompilable reports whether op can be translated to host code by
// this recompiler. Everything else -- display, timers, keyboard, RNG,
// DRW, BCD/register-dump/register-load, and the two skip-on-key opcodes
// -- always runs through the shared interpreter instead, one opcode at a
// time, via Dynarec.stepInterpreted. That is narrower than a block that
// calls into the interpreter mid-stream and keeps going: it ends the
// native block one opcode early instead of compiling through a
// self-modifying write and patching the BlockTable in place. See
// DESIGN.md for why that tradeoff was made instead of building an
// in-block callback into Go.
func nativeCompilable(op chip8.Opcode) bool {
	switch op.Id {
	case 0x0:
		return op.NNN == 0x0E0 // CLS; 00EE (RET) and 0NNN (SYS) handled below/elsewhere
	case 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0x9, 0xA, 0xB:
		return true
	case 0x8:
		switch op.N {
		case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7, 0xE:
			return true
		}
		return false
	case 0xF:
		return op.KK == 0x1E // ADD I, Vx
	}
	return false
}

// isTerminator reports whether op always ends the straight-line block it
// appears in: it changes control flow (and therefore core.PC) by more
// than the uniform +2 compileBlock otherwise appends once, unconditionally.
func isTerminator(op chip8.Opcode) bool {
	switch op.Id {
	case 0x1, 0x2, 0xB: // JP addr, CALL addr, JP V0,addr
		return true
	case 0x3, 0x4, 0x5, 0x9: // SE/SNE immediate and register
		return true
	}
	return false
}

// emitOpcode appends the native translation of one guest opcode at guest
// address pc. Callers only invoke this for opcodes nativeCompilable
// already accepted.
func emitOpcode(a *x64.Assembler, op chip8.Opcode, pc uint16) {
	switch op.Id {
	case 0x0: // 00E0 CLS
		emitClearDisplay(a)
	case 0x1: // 1NNN JP addr
		emitStorePC(a, op.NNN)
	case 0x2: // 2NNN CALL addr
		emitCall(a, op.NNN, pc)
	case 0x3: // 3XKK SE Vx, byte
		emitSkipImm(a, op.X, op.KK, pc, true)
	case 0x4: // 4XKK SNE Vx, byte
		emitSkipImm(a, op.X, op.KK, pc, false)
	case 0x5: // 5XY0 SE Vx, Vy
		emitSkipReg(a, op.X, op.Y, pc, true)
	case 0x6: // 6XKK LD Vx, byte
		a.MovRegImm32(scratch1, uint32(op.KK))
		a.StoreMem8(baseReg, gprOffset(op.X), scratch1)
	case 0x7: // 7XKK ADD Vx, byte
		a.LoadMem8(scratch1, baseReg, gprOffset(op.X))
		a.AddRegImm32(scratch1, int32(op.KK))
		a.StoreMem8(baseReg, gprOffset(op.X), scratch1)
	case 0x8:
		emitALU(a, op)
	case 0x9: // 9XY0 SNE Vx, Vy
		emitSkipReg(a, op.X, op.Y, pc, false)
	case 0xA: // ANNN LD I, addr
		a.MovRegImm32(scratch1, uint32(op.NNN))
		a.StoreMem16(baseReg, offIndex, scratch1)
	case 0xB: // BNNN JP V0, addr
		a.LoadMem8(scratch1, baseReg, gprOffset(0))
		a.AddRegImm32(scratch1, int32(op.NNN))
		a.StoreMem16(baseReg, offPC, scratch1)
	case 0xF: // FX1E ADD I, Vx
		a.LoadMem16(scratch1, baseReg, offIndex)
		a.LoadMem8(scratch2, baseReg, gprOffset(op.X))
		a.AddRegReg(scratch1, scratch2)
		a.AndRegImm32(scratch1, 0x0FFF)
		a.StoreMem16(baseReg, offIndex, scratch1)
	}
}

// emitStorePC writes an immediate 16-bit address into core.PC.
func emitStorePC(a *x64.Assembler, addr uint16) {
	a.MovRegImm32(scratch1, uint32(addr))
	a.StoreMem16(baseReg, offPC, scratch1)
}

// emitClearDisplay zeroes all 32 display rows with a straight run of
// stores; there are few enough rows that an unrolled loop beats the
// bookkeeping of a real one.
func emitClearDisplay(a *x64.Assembler) {
	a.XorRegReg(scratch1, scratch1)
	for row := 0; row < chip8.DisplayHeight; row++ {
		a.StoreMem64(baseReg, displayRowOffset(row), scratch1)
	}
}

// emitCall pushes the CHIP-8 return address (pc+2) onto the guest stack
// and jumps to addr. It trusts SP is in range; like the interpreter's own
// CALL/RET, it does no stack-depth check.
func emitCall(a *x64.Assembler, addr, pc uint16) {
	// scratch1 = SP (zero-extended), compute Stack[SP] address as
	// offStack + SP*2 using a shift instead of a multiply.
	a.LoadMem8(scratch1, baseReg, offSP)
	a.ShlImm8(scratch1, 1) // SP*2
	a.AddRegImm32(scratch1, offStack)
	a.AddRegReg(scratch1, baseReg) // scratch1 = &core.Stack[SP]

	a.MovRegImm32(scratch2, uint32(pc+2))
	a.StoreMem16Indirect(scratch1, scratch2)

	a.LoadMem8(scratch2, baseReg, offSP)
	a.AddRegImm32(scratch2, 1)
	a.StoreMem8(baseReg, offSP, scratch2)

	emitStorePC(a, addr)
}

// emitSkipImm emits SE/SNE Vx, byte: PC advances by either +2 or +4
// depending on the comparison, computed branchlessly with Cmove/Cmovne so
// the block body never has to encode a real conditional jump.
func emitSkipImm(a *x64.Assembler, x byte, kk byte, pc uint16, skipOnEqual bool) {
	a.LoadMem8(scratch1, baseReg, gprOffset(x))
	a.MovRegImm32(scratch2, uint32(kk))
	a.Cmp(scratch1, scratch2)

	emitBranchlessSkip(a, pc, skipOnEqual)
}

// emitSkipReg emits SE/SNE Vx, Vy the same way as emitSkipImm.
func emitSkipReg(a *x64.Assembler, x, y byte, pc uint16, skipOnEqual bool) {
	a.LoadMem8(scratch1, baseReg, gprOffset(x))
	a.LoadMem8(scratch2, baseReg, gprOffset(y))
	a.Cmp(scratch1, scratch2)

	emitBranchlessSkip(a, pc, skipOnEqual)
}

// emitBranchlessSkip materializes pc+2 and pc+4 into two registers and
// conditional-moves the comparison's outcome into core.PC, the same
// branchless-skip technique spec's design notes call out for DXYN's
// collision flag and reuse here for SE/SNE/skip-class opcodes.
func emitBranchlessSkip(a *x64.Assembler, pc uint16, skipOnEqual bool) {
	a.MovRegImm32(scratch1, uint32(pc+2))
	a.MovRegImm32(scratch2, uint32(pc+4))
	if skipOnEqual {
		a.CmoveRegReg(scratch1, scratch2)
	} else {
		a.CmovneRegReg(scratch1, scratch2)
	}
	a.StoreMem16(baseReg, offPC, scratch1)
}

// emitALU emits the 8XY_ register-register ALU family, including VF flag
// updates that must be computed before the destination register is
// overwritten (SHR/SHL read the pre-shift bit; SUB/SUBN compare before
// subtracting).
func emitALU(a *x64.Assembler, op chip8.Opcode) {
	x, y := op.X, op.Y

	switch op.N {
	case 0x0: // LD Vx, Vy
		a.LoadMem8(scratch1, baseReg, gprOffset(y))
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
	case 0x1: // OR
		a.LoadMem8(scratch1, baseReg, gprOffset(x))
		a.LoadMem8(scratch2, baseReg, gprOffset(y))
		a.OrRegReg(scratch1, scratch2)
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
	case 0x2: // AND
		a.LoadMem8(scratch1, baseReg, gprOffset(x))
		a.LoadMem8(scratch2, baseReg, gprOffset(y))
		a.AndRegReg(scratch1, scratch2)
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
	case 0x3: // XOR
		a.LoadMem8(scratch1, baseReg, gprOffset(x))
		a.LoadMem8(scratch2, baseReg, gprOffset(y))
		a.XorRegReg(scratch1, scratch2)
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
	case 0x4: // ADD, VF = carry out of bit 7
		a.LoadMem8(scratch1, baseReg, gprOffset(x))
		a.LoadMem8(scratch2, baseReg, gprOffset(y))
		a.AddRegReg(scratch1, scratch2) // full-width add; high bits hold the carry
		a.MovRegReg(scratch2, scratch1)
		a.AndRegImm32(scratch2, 0xFF)
		a.StoreMem8(baseReg, gprOffset(x), scratch2)
		// VF is written last so X==0xF ends up holding the carry, not
		// the truncated sum -- matching the interpreter's write order.
		emitFlagFromHighByte(a, scratch1)
	case 0x5: // SUB, VF = 1 if Vx > Vy (unsigned) before the subtract
		flagReg, one := x64.RDX, x64.RSI
		a.LoadMem8(scratch1, baseReg, gprOffset(x))
		a.LoadMem8(scratch2, baseReg, gprOffset(y))
		a.XorRegReg(flagReg, flagReg) // prepared before Cmp: xor itself sets flags
		a.MovRegImm32(one, 1)
		a.Cmp(scratch1, scratch2)
		a.CmovgRegReg(flagReg, one) // flagReg := (Vx > Vy) ? 1 : 0, right after Cmp sets flags
		a.SubRegReg(scratch1, scratch2)
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
		a.StoreMem8(baseReg, gprOffset(0xF), flagReg) // written last: wins if X==0xF
	case 0x6: // SHR, VF = original LSB
		a.LoadMem8(scratch1, baseReg, gprOffset(x))
		a.MovRegReg(scratch2, scratch1)
		a.AndRegImm32(scratch2, 1)
		a.ShrImm8(scratch1, 1)
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
		a.StoreMem8(baseReg, gprOffset(0xF), scratch2) // written last
	case 0x7: // SUBN, VF = 1 if Vy > Vx (unsigned) before the subtract
		flagReg, one := x64.RDX, x64.RSI
		a.LoadMem8(scratch1, baseReg, gprOffset(y))
		a.LoadMem8(scratch2, baseReg, gprOffset(x))
		a.XorRegReg(flagReg, flagReg)
		a.MovRegImm32(one, 1)
		a.Cmp(scratch1, scratch2)
		a.CmovgRegReg(flagReg, one)
		a.SubRegReg(scratch1, scratch2)
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
		a.StoreMem8(baseReg, gprOffset(0xF), flagReg) // written last: wins if X==0xF
	case 0xE: // SHL, VF = original MSB
		a.LoadMem8(scratch1, baseReg, gprOffset(x))
		a.MovRegReg(scratch2, scratch1)
		a.ShrImm8(scratch2, 7)
		a.AndRegImm32(scratch2, 1)
		a.ShlImm8(scratch1, 1)
		a.StoreMem8(baseReg, gprOffset(x), scratch1)
		a.StoreMem8(baseReg, gprOffset(0xF), scratch2) // written last
	}
}

// emitFlagFromHighByte writes VF = 1 when sum's bits above the low byte
// are nonzero (i.e. the 8-bit add overflowed), using the same
// compare-then-conditional-move idiom as the skip emitters instead of a
// data-dependent branch.
func emitFlagFromHighByte(a *x64.Assembler, sum x64.Reg) {
	a.MovRegReg(scratch2, sum)
	a.ShrImm8(scratch2, 8)
	a.AndRegImm32(scratch2, 1)
	a.StoreMem8(baseReg, gprOffset(0xF), scratch2)
}

