// Package x64 is a tiny x86-64 byte emitter: just enough instruction
// encoding for the CHIP-8 recompiler's per-opcode code generators. It has
// no notion of basic blocks, registers allocation, or an IR -- callers
// emit bytes directly into an Assembler's buffer in program order, the
// same way the guest-ROM assembler in chip8/asm builds a byte stream one
// mnemonic at a time.
//
// Only the System V AMD64 calling convention is targeted: the first
// integer argument arrives in RDI, integer results are returned in RAX,
// and RBX/RBP/R12-R15 are callee-saved.
package x64

import "encoding/binary"

// Reg names the 16 general-purpose integer registers by their encoding
// (0-15); R8-R15 require a REX.B/REX.R/REX.X extension bit.
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// low3 is the 3-bit field an instruction's ModRM/opcode byte encodes;
// registers 8-15 reuse 0-7 here with the REX extension bit set instead.
func (r Reg) low3() byte { return byte(r) & 0x7 }

// ext reports whether r needs a REX extension bit (R8-R15).
func (r Reg) ext() bool { return r >= R8 }

// Assembler accumulates emitted bytes for one recompiled block.
type Assembler struct {
	buf []byte
}

// NewAssembler returns an emitter with a preallocated buffer, sized
// generously for a single block (most blocks are well under this).
func NewAssembler() *Assembler {
	return &Assembler{buf: make([]byte, 0, 256)}
}

// Bytes returns the bytes emitted so far.
func (a *Assembler) Bytes() []byte { return a.buf }

// Len returns the number of bytes emitted so far.
func (a *Assembler) Len() int { return len(a.buf) }

func (a *Assembler) emit(b ...byte) { a.buf = append(a.buf, b...) }

func (a *Assembler) emitU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	a.buf = append(a.buf, tmp[:]...)
}

func (a *Assembler) emitI32(v int32) { a.emitU32(uint32(v)) }

func (a *Assembler) emitU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	a.buf = append(a.buf, tmp[:]...)
}

// rex builds a REX prefix. w selects the 64-bit operand size, r/x/b are
// the extension bits for ModRM.reg, SIB.index and ModRM.rm/SIB.base
// respectively. A REX prefix is only strictly required when one of these
// is set or when addressing the low byte of RSP/RBP/RSI/RDI, but emitting
// it unconditionally for 64-bit ops is harmless and simpler to reason
// about.
func rex(w, r, x, b bool) byte {
	out := byte(0x40)
	if w {
		out |= 0x08
	}
	if r {
		out |= 0x04
	}
	if x {
		out |= 0x02
	}
	if b {
		out |= 0x01
	}
	return out
}

// modrm builds a ModRM byte for the common "register, register" (mod=11)
// or "register, [base+disp32]" (mod=10) addressing forms used here.
func modrm(mod, reg, rm byte) byte {
	return (mod << 6) | ((reg & 0x7) << 3) | (rm & 0x7)
}

// memOperand emits the ModRM(+SIB)(+disp32) bytes for [base+disp], always
// using a 32-bit displacement so patch sites (if ever needed) have a
// known fixed width. base==RSP/R12 requires a SIB byte to avoid colliding
// with the RIP-relative encoding.
func (a *Assembler) memOperand(reg, base Reg, disp int32) {
	a.emit(modrm(0x2, reg.low3(), base.low3()))
	if base.low3() == RSP.low3() {
		a.emit(0x24) // SIB: scale=0, index=none, base=RSP/R12
	}
	a.emitI32(disp)
}

// Prologue emits the block entry sequence: save the callee-saved base
// register, load it with the CoreState pointer passed in RDI (the
// portable, sanitizer-friendly alternative to embedding an absolute
// address that spec.md's design notes call out), and reserve frameBytes
// of aligned stack space. No emitted block calls out of itself, so
// nothing currently uses that space.
func (a *Assembler) Prologue(base Reg, frameBytes int32) {
	a.PushReg(base)
	a.MovRegReg(base, RDI)
	a.SubRspImm32(frameBytes)
}

// Epilogue emits the matching restore-and-return sequence. The block's
// cycle count is not computed by the native code at all -- it is fixed
// once the translation is finished and carried alongside the entry point
// in recompiler.Block, so the generated body only ever needs to mutate
// CoreState and return.
func (a *Assembler) Epilogue(base Reg, frameBytes int32) {
	a.AddRspImm32(frameBytes)
	a.PopReg(base)
	a.Ret()
}

// PushReg emits `push reg`.
func (a *Assembler) PushReg(r Reg) {
	if r.ext() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x50 + r.low3())
}

// PopReg emits `pop reg`.
func (a *Assembler) PopReg(r Reg) {
	if r.ext() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0x58 + r.low3())
}

// Ret emits `ret`.
func (a *Assembler) Ret() { a.emit(0xC3) }

// MovRegReg emits `mov dst, src` (64-bit).
func (a *Assembler) MovRegReg(dst, src Reg) {
	a.emit(rex(true, src.ext(), false, dst.ext()), 0x89, modrm(0x3, src.low3(), dst.low3()))
}

// MovRegImm64 emits `movabs dst, imm64`.
func (a *Assembler) MovRegImm64(dst Reg, imm uint64) {
	a.emit(rex(true, false, false, dst.ext()), 0xB8+dst.low3())
	a.emitU64(imm)
}

// MovRegImm32 emits a zero-extending `mov dst(32-bit), imm32`.
func (a *Assembler) MovRegImm32(dst Reg, imm uint32) {
	if dst.ext() {
		a.emit(rex(false, false, false, true))
	}
	a.emit(0xB8 + dst.low3())
	a.emitU32(imm)
}

// LoadMem8 emits `movzx dst(64-bit), byte [base+disp]` -- used for the
// byte-width CoreState fields (GPR, SP, Delay, Sound).
func (a *Assembler) LoadMem8(dst, base Reg, disp int32) {
	a.emit(rex(true, dst.ext(), false, base.ext()), 0x0F, 0xB6)
	a.memOperand(dst, base, disp)
}

// StoreMem8 emits `mov byte [base+disp], src(low 8 bits)`.
func (a *Assembler) StoreMem8(base Reg, disp int32, src Reg) {
	if needsREX8(src) || base.ext() || src.ext() {
		a.emit(rex(false, src.ext(), false, base.ext()))
	}
	a.emit(0x88)
	a.memOperand(src, base, disp)
}

// needsREX8 reports whether accessing reg's low byte requires a REX
// prefix to avoid the legacy AH/CH/DH/BH encodings (RSP/RBP/RSI/RDI).
func needsREX8(r Reg) bool { return r >= RSP && r <= RDI }

// LoadMem16 emits `movzx dst(64-bit), word [base+disp]` -- used for PC,
// Index and Stack[i].
func (a *Assembler) LoadMem16(dst, base Reg, disp int32) {
	a.emit(rex(true, dst.ext(), false, base.ext()), 0x0F, 0xB7)
	a.memOperand(dst, base, disp)
}

// StoreMem16 emits `mov word [base+disp], src(low 16 bits)`.
func (a *Assembler) StoreMem16(base Reg, disp int32, src Reg) {
	a.emit(0x66) // operand-size override to 16-bit
	if src.ext() || base.ext() {
		a.emit(rex(false, src.ext(), false, base.ext()))
	}
	a.emit(0x89)
	a.memOperand(src, base, disp)
}

// StoreMem16Indirect emits `mov word [addr], src(low 16 bits)`, where addr
// itself (not addr+disp) holds the target address -- used for the one
// case here that needs a computed rather than statically-known offset:
// writing a guest return address to Stack[SP] with SP not known until
// runtime.
func (a *Assembler) StoreMem16Indirect(addr, src Reg) {
	a.emit(0x66)
	if src.ext() || addr.ext() {
		a.emit(rex(false, src.ext(), false, addr.ext()))
	}
	a.emit(0x89, modrm(0x0, src.low3(), addr.low3()))
	if addr.low3() == RSP.low3() {
		a.emit(0x24)
	}
}

// LoadMem64 emits `mov dst, qword [base+disp]` -- used for Display rows.
func (a *Assembler) LoadMem64(dst, base Reg, disp int32) {
	a.emit(rex(true, dst.ext(), false, base.ext()), 0x8B)
	a.memOperand(dst, base, disp)
}

// StoreMem64 emits `mov qword [base+disp], src`.
func (a *Assembler) StoreMem64(base Reg, disp int32, src Reg) {
	a.emit(rex(true, src.ext(), false, base.ext()), 0x89)
	a.memOperand(src, base, disp)
}

// AddRegReg emits `add dst, src` (64-bit).
func (a *Assembler) AddRegReg(dst, src Reg) {
	a.emit(rex(true, src.ext(), false, dst.ext()), 0x01, modrm(0x3, src.low3(), dst.low3()))
}

// SubRegReg emits `sub dst, src` (64-bit).
func (a *Assembler) SubRegReg(dst, src Reg) {
	a.emit(rex(true, src.ext(), false, dst.ext()), 0x29, modrm(0x3, src.low3(), dst.low3()))
}

// AndRegReg emits `and dst, src` (64-bit).
func (a *Assembler) AndRegReg(dst, src Reg) {
	a.emit(rex(true, src.ext(), false, dst.ext()), 0x21, modrm(0x3, src.low3(), dst.low3()))
}

// OrRegReg emits `or dst, src` (64-bit).
func (a *Assembler) OrRegReg(dst, src Reg) {
	a.emit(rex(true, src.ext(), false, dst.ext()), 0x09, modrm(0x3, src.low3(), dst.low3()))
}

// XorRegReg emits `xor dst, src` (64-bit).
func (a *Assembler) XorRegReg(dst, src Reg) {
	a.emit(rex(true, src.ext(), false, dst.ext()), 0x31, modrm(0x3, src.low3(), dst.low3()))
}

// Cmp emits `cmp lhs, rhs` (64-bit), setting flags for a later Cmovcc.
func (a *Assembler) Cmp(lhs, rhs Reg) {
	a.emit(rex(true, rhs.ext(), false, lhs.ext()), 0x39, modrm(0x3, rhs.low3(), lhs.low3()))
}

// AddRegImm32 emits `add dst, imm32` (64-bit, sign-extended).
func (a *Assembler) AddRegImm32(dst Reg, imm int32) {
	a.emit(rex(true, false, false, dst.ext()), 0x81, modrm(0x3, 0, dst.low3()))
	a.emitI32(imm)
}

// SubRspImm32 emits `sub rsp, imm32`.
func (a *Assembler) SubRspImm32(imm int32) {
	a.emit(rex(true, false, false, false), 0x81, modrm(0x3, 5, RSP.low3()))
	a.emitI32(imm)
}

// AddRspImm32 emits `add rsp, imm32`.
func (a *Assembler) AddRspImm32(imm int32) {
	a.emit(rex(true, false, false, false), 0x81, modrm(0x3, 0, RSP.low3()))
	a.emitI32(imm)
}

// ShrImm8 emits `shr dst, imm8` (64-bit).
func (a *Assembler) ShrImm8(dst Reg, imm uint8) {
	a.emit(rex(true, false, false, dst.ext()), 0xC1, modrm(0x3, 5, dst.low3()))
	a.emit(imm)
}

// ShlImm8 emits `shl dst, imm8` (64-bit).
func (a *Assembler) ShlImm8(dst Reg, imm uint8) {
	a.emit(rex(true, false, false, dst.ext()), 0xC1, modrm(0x3, 4, dst.low3()))
	a.emit(imm)
}

// AndRegImm32 emits `and dst, imm32` (64-bit, sign-extended).
func (a *Assembler) AndRegImm32(dst Reg, imm uint32) {
	a.emit(rex(true, false, false, dst.ext()), 0x81, modrm(0x3, 4, dst.low3()))
	a.emitU32(imm)
}

// CmovgRegReg emits `cmovg dst, src` -- conditional move if greater
// (signed), used to set VF for SUB/SUBN without a branch.
func (a *Assembler) CmovgRegReg(dst, src Reg) {
	a.emit(rex(true, dst.ext(), false, src.ext()), 0x0F, 0x4F, modrm(0x3, dst.low3(), src.low3()))
}

// CmoveRegReg emits `cmove dst, src` -- conditional move if equal.
func (a *Assembler) CmoveRegReg(dst, src Reg) {
	a.emit(rex(true, dst.ext(), false, src.ext()), 0x0F, 0x44, modrm(0x3, dst.low3(), src.low3()))
}

// CmovneRegReg emits `cmovne dst, src` -- conditional move if not equal.
func (a *Assembler) CmovneRegReg(dst, src Reg) {
	a.emit(rex(true, dst.ext(), false, src.ext()), 0x0F, 0x45, modrm(0x3, dst.low3(), src.low3()))
}
