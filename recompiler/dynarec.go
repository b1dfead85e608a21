package recompiler

import (
	"log"
	"unsafe"

	"github.com/massung/chip8dynarec/chip8"
	"github.com/massung/chip8dynarec/internal/x64"
)

// Dynarec is the full dynamic-recompiler tier: it translates runs of
// simple, straight-line opcodes into native x86-64 code cached per guest
// page, and falls back to the shared interpreter for RET, RND, DRW, the
// key-skip opcodes and every Fx opcode except Fx1E -- among them the two
// opcodes that can self-modify the very code a block would otherwise
// cache. It implements chip8.Executor.
type Dynarec struct {
	cache *CodeCache
	table BlockTable
	interp chip8.Interpreter
}

// NewDynarec mmaps a fresh code cache. Callers must call Close when
// done with it.
func NewDynarec() (*Dynarec, error) {
	cache, err := NewCodeCache()
	if err != nil {
		return nil, err
	}
	return &Dynarec{cache: cache}, nil
}

// Close releases the code cache's backing pages.
func (r *Dynarec) Close() error {
	return r.cache.Close()
}

// Step implements chip8.Executor.
func (r *Dynarec) Step(core *chip8.CoreState) (uint32, error) {
	op := chip8.FetchOpcode(&core.RAM, core.PC)
	decoded := chip8.Decode(op)

	if !nativeCompilable(decoded) {
		return r.stepInterpreted(core, decoded)
	}

	block := r.table.Get(core.PC)
	if block == nil {
		b, err := r.compileBlock(core, core.PC)
		if err != nil {
			return 0, err
		}
		r.table.Set(core.PC, b)
		block = b
	}

	callBlock(block.Entry, uintptr(unsafe.Pointer(core)))
	return block.Cycles, nil
}

// stepInterpreted runs exactly one opcode through the shared interpreter
// and, for the two opcodes that can write guest RAM (and therefore
// modify code the BlockTable may have cached), invalidates every page
// the write touched.
func (r *Dynarec) stepInterpreted(core *chip8.CoreState, decoded chip8.Opcode) (uint32, error) {
	start, length, writesRAM := memoryWriteSpan(core, decoded)

	cycles, err := r.interp.Step(core)
	if err != nil {
		return cycles, err
	}

	if writesRAM {
		r.table.InvalidateRange(start, length)
	}

	return cycles, nil
}

// memoryWriteSpan reports the RAM range FX33 (BCD) or FX55 (register
// dump) is about to write, computed before the interpreter runs since
// both opcodes derive the span from registers that don't change as a
// side effect of executing them.
func memoryWriteSpan(core *chip8.CoreState, op chip8.Opcode) (start uint16, length int, ok bool) {
	if op.Id != 0xF {
		return 0, 0, false
	}
	switch op.KK {
	case 0x33:
		return core.Index, 3, true
	case 0x55:
		return core.Index, int(op.X) + 1, true
	}
	return 0, 0, false
}

// compileBlock translates straight-line guest code starting at startPC
// into a native function, stopping at the first terminator, the first
// opcode the interpreter alone can handle, or the page boundary --
// whichever comes first. It always emits at least one opcode: Step only
// calls it once nativeCompilable(core.PC's opcode) is already true.
func (r *Dynarec) compileBlock(core *chip8.CoreState, startPC uint16) (*Block, error) {
	if r.cache.NearExhausted() {
		log.Printf("recompiler: code cache nearly full, resetting")
		r.cache.Reset()
		r.table.Reset()
	}

	asm := x64.NewAssembler()
	asm.Prologue(baseReg, frameBytes)

	startPage, _ := pageAndSlot(startPC)
	pc := startPC
	cycles := uint32(0)
	terminated := false

	for {
		if page, _ := pageAndSlot(pc); page != startPage {
			break
		}

		op := chip8.FetchOpcode(&core.RAM, pc)
		decoded := chip8.Decode(op)
		if !nativeCompilable(decoded) {
			break
		}

		emitOpcode(asm, decoded, pc)
		cycles++
		pc += 2

		if isTerminator(decoded) {
			terminated = true
			break
		}
	}

	if !terminated {
		emitStorePC(asm, pc)
	}

	asm.Epilogue(baseReg, frameBytes)

	entry, err := r.cache.Emit(asm.Bytes())
	if _, exhausted := err.(CacheExhaustionError); exhausted {
		// NearExhausted should have caught this already; treat it as
		// non-fatal anyway and retry once against a freshly reset arena.
		log.Printf("%v; resetting", err)
		r.cache.Reset()
		r.table.Reset()
		entry, err = r.cache.Emit(asm.Bytes())
	}
	if err != nil {
		return nil, err
	}
	return &Block{Entry: entry, Cycles: cycles}, nil
}

// Invalidate implements chip8.Executor.
func (r *Dynarec) Invalidate(start, end uint16) {
	if end <= start {
		return
	}
	r.table.InvalidateRange(start, int(end-start))
}

// Reset implements chip8.Executor.
func (r *Dynarec) Reset() {
	r.cache.Reset()
	r.table.Reset()
}

// Dump returns every byte of native code emitted so far, so the presenter
// demo can write it to emittedcode.bin on a clean shutdown for offline
// host-code disassembly.
func (r *Dynarec) Dump() ([]byte, error) {
	return r.cache.Dump(), nil
}
