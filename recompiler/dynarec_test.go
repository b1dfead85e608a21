//go:build amd64

package recompiler

import (
	"testing"

	"github.com/massung/chip8dynarec/chip8"
)

// TestDynarecMatchesInterpreterOnSimpleRun exercises the one property
// spec's test notes call the most important: running the same ROM
// through the recompiler and through the plain interpreter must leave
// both cores in the same architectural state.
func TestDynarecMatchesInterpreterOnSimpleRun(t *testing.T) {
	program := []byte{
		0x60, 0x05, // LD V0, 5
		0x61, 0x03, // LD V1, 3
		0x80, 0x14, // ADD V0, V1 -> V0=8, VF=0
		0x70, 0xF9, // ADD V0, 0xF9 -> V0 wraps to 1
		0xA3, 0x00, // LD I, 0x300
		0x12, 0x0A, // JP 0x20A (self-loop, so Step count is bounded)
	}

	plain := newCore(program)
	r, err := NewDynarec()
	if err != nil {
		t.Fatalf("NewDynarec: %v", err)
	}
	defer r.Close()
	recompiled := newCore(program)

	interp := chip8.Interpreter{}

	const steps = 6
	for i := 0; i < steps; i++ {
		if _, err := interp.Step(plain); err != nil {
			t.Fatalf("interpreter step %d: %v", i, err)
		}
		if _, err := r.Step(recompiled); err != nil {
			t.Fatalf("recompiler step %d: %v", i, err)
		}
	}

	if plain.PC != recompiled.PC {
		t.Fatalf("PC diverged: interpreter=%03X recompiler=%03X", plain.PC, recompiled.PC)
	}
	if plain.GPR != recompiled.GPR {
		t.Fatalf("GPR diverged: interpreter=%v recompiler=%v", plain.GPR, recompiled.GPR)
	}
	if plain.Index != recompiled.Index {
		t.Fatalf("Index diverged: interpreter=%03X recompiler=%03X", plain.Index, recompiled.Index)
	}
}

// TestDynarecFallsBackForComplexOpcodes checks that an opcode the
// native emitter never handles (DRW) still executes correctly, routed
// through the interpreter fallback path rather than a compiled block.
func TestDynarecFallsBackForComplexOpcodes(t *testing.T) {
	program := []byte{
		0xA0, 0x00, // LD I, 0x000 (font digit 0 is resident there after Reset)
		0x60, 0x00, // LD V0, 0
		0x61, 0x00, // LD V1, 0
		0xD0, 0x15, // DRW V0, V1, 5
	}

	core := newCore(program)
	r, err := NewDynarec()
	if err != nil {
		t.Fatalf("NewDynarec: %v", err)
	}
	defer r.Close()

	// The first three opcodes (LD I, LD V0, LD V1) share a page and are
	// natively compiled into one block; DRW always runs interpreted.
	for i := 0; i < 2; i++ {
		if _, err := r.Step(core); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if core.Display[0] == 0 {
		t.Fatal("expected DRW to have plotted the font glyph via the interpreter fallback")
	}
}

// TestDynarecInvalidatesCachedBlockOnSelfModify exercises the SMC path:
// a block compiled at one address must stop being reachable once guest
// code writes over the bytes it was compiled from.
func TestDynarecInvalidatesCachedBlockOnSelfModify(t *testing.T) {
	program := []byte{
		0x60, 0x01, // LD V0, 1 @ 0x200 -- will be natively compiled
		0xA2, 0x00, // LD I, 0x200       -- point Index at the opcode above
		0xF0, 0x55, // LD [I], V0         -- overwrite RAM[0x200] with 0x01
		0x12, 0x06, // JP 0x206           -- self-loop in the same page
	}
	core := newCore(program)
	r, err := NewDynarec()
	if err != nil {
		t.Fatalf("NewDynarec: %v", err)
	}
	defer r.Close()

	if _, err := r.Step(core); err != nil { // compiles and runs LD V0, 1 and LD I, 0x200 as one block
		t.Fatal(err)
	}
	if r.table.Get(chip8.ProgramBase) == nil {
		t.Fatal("expected a block to be cached at the program's first opcode")
	}

	if _, err := r.Step(core); err != nil { // LD [I], V0 (interpreted) -- self-modifies 0x200
		t.Fatal(err)
	}
	if _, err := r.Step(core); err != nil { // JP 0x206 -- compiles a new block in the invalidated page
		t.Fatal(err)
	}

	if r.table.Get(chip8.ProgramBase) != nil {
		t.Fatal("self-modifying write should have invalidated the cached block at 0x200")
	}
}
