package recompiler

import (
	"testing"

	"github.com/massung/chip8dynarec/chip8"
)

func newCore(program []byte) *chip8.CoreState {
	c := &chip8.CoreState{}
	c.LoadROM(program)
	return c
}

func TestCachedInterpreterMatchesPlainInterpreter(t *testing.T) {
	program := []byte{
		0x60, 0x05, // LD V0, 5
		0x61, 0x03, // LD V1, 3
		0x80, 0x14, // ADD V0, V1
		0x30, 0x08, // SE V0, 8 (matches, skip)
	}

	plain := newCore(program)
	cached := newCore(program)

	ci := &CachedInterpreter{}
	interp := chip8.Interpreter{}

	for i := 0; i < 4; i++ {
		if _, err := interp.Step(plain); err != nil {
			t.Fatalf("interpreter step %d: %v", i, err)
		}
		if _, err := ci.Step(cached); err != nil {
			t.Fatalf("cached step %d: %v", i, err)
		}
	}

	if plain.PC != cached.PC {
		t.Fatalf("PC diverged: plain=%03X cached=%03X", plain.PC, cached.PC)
	}
	if plain.GPR != cached.GPR {
		t.Fatalf("GPR diverged: plain=%v cached=%v", plain.GPR, cached.GPR)
	}
}

func TestCachedInterpreterReusesDecodeOnSecondVisit(t *testing.T) {
	program := []byte{
		0x12, 0x00, // JP 0x200 (infinite loop back to self)
	}
	core := newCore(program)
	ci := &CachedInterpreter{}

	if _, err := ci.Step(core); err != nil {
		t.Fatal(err)
	}
	if ci.decoded.get(chip8.ProgramBase) == nil {
		t.Fatal("expected the first visit to populate the decode cache")
	}

	// Second visit should hit the cache and produce the same effect.
	if _, err := ci.Step(core); err != nil {
		t.Fatal(err)
	}
	if core.PC != chip8.ProgramBase {
		t.Fatalf("PC = %03X, want %03X (looping JP)", core.PC, chip8.ProgramBase)
	}
}

func TestCachedInterpreterInvalidatesOnSelfModify(t *testing.T) {
	program := []byte{
		0x60, 0x01, // LD V0, 1  (overwritten below via Fx55)
		0xF0, 0x55, // LD [I], V0 -- writes RAM[Index:Index+1]
	}
	core := newCore(program)
	core.Index = chip8.ProgramBase // self-modify the very opcode stream

	ci := &CachedInterpreter{}

	if _, err := ci.Step(core); err != nil { // LD V0, 1
		t.Fatal(err)
	}
	if ci.decoded.get(chip8.ProgramBase) == nil {
		t.Fatal("expected the first opcode to be cached")
	}

	if _, err := ci.Step(core); err != nil { // LD [I], V0 -- overwrites RAM[0x200]
		t.Fatal(err)
	}

	if ci.decoded.get(chip8.ProgramBase) != nil {
		t.Fatal("self-modifying write should have evicted the cached decode at 0x200")
	}
}
