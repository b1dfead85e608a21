package chip8

import "testing"

func newCore(t *testing.T) *CoreState {
	t.Helper()
	c := &CoreState{}
	c.Reset()
	return c
}

func step(t *testing.T, c *CoreState, op uint16) {
	t.Helper()
	c.RAM[c.PC] = byte(op >> 8)
	c.RAM[c.PC+1] = byte(op & 0xFF)
	if _, err := (Interpreter{}).Step(c); err != nil {
		t.Fatalf("step %04X: %v", op, err)
	}
}

func TestAddVxVyCarry(t *testing.T) {
	for a := 0; a < 256; a += 17 {
		for b := 0; b < 256; b += 23 {
			c := newCore(t)
			c.GPR[0] = byte(a)
			c.GPR[1] = byte(b)

			step(t, c, 0x8014) // ADD V0, V1

			wantSum := byte((a + b) % 256)
			wantCarry := byte(0)
			if a+b > 0xFF {
				wantCarry = 1
			}

			if c.GPR[0] != wantSum {
				t.Fatalf("a=%d b=%d: V0 = %d, want %d", a, b, c.GPR[0], wantSum)
			}
			if c.GPR[0xF] != wantCarry {
				t.Fatalf("a=%d b=%d: VF = %d, want %d", a, b, c.GPR[0xF], wantCarry)
			}
		}
	}
}

func TestSubVxVyBorrow(t *testing.T) {
	for a := 0; a < 256; a += 17 {
		for b := 0; b < 256; b += 23 {
			c := newCore(t)
			c.GPR[0] = byte(a)
			c.GPR[1] = byte(b)

			step(t, c, 0x8015) // SUB V0, V1

			wantDiff := byte((a - b) % 256)
			wantFlag := byte(0)
			if a > b {
				wantFlag = 1
			}

			if c.GPR[0] != wantDiff {
				t.Fatalf("a=%d b=%d: V0 = %d, want %d", a, b, c.GPR[0], wantDiff)
			}
			if c.GPR[0xF] != wantFlag {
				t.Fatalf("a=%d b=%d: VF = %d, want %d", a, b, c.GPR[0xF], wantFlag)
			}
		}
	}
}

func TestShrUsesOriginalLSB(t *testing.T) {
	c := newCore(t)
	c.GPR[0] = 0x03 // ...011

	step(t, c, 0x8006) // SHR V0

	if c.GPR[0] != 0x01 {
		t.Fatalf("V0 = %X, want 1", c.GPR[0])
	}
	if c.GPR[0xF] != 1 {
		t.Fatalf("VF = %d, want 1 (original LSB)", c.GPR[0xF])
	}
}

func TestShlUsesOriginalMSB(t *testing.T) {
	c := newCore(t)
	c.GPR[0] = 0x81 // 1000_0001

	step(t, c, 0x800E) // SHL V0

	if c.GPR[0] != 0x02 {
		t.Fatalf("V0 = %X, want 2", c.GPR[0])
	}
	if c.GPR[0xF] != 1 {
		t.Fatalf("VF = %d, want 1 (original MSB)", c.GPR[0xF])
	}
}

func TestBCD(t *testing.T) {
	c := newCore(t)
	c.GPR[0] = 234
	c.Index = 0x300

	step(t, c, 0xF033) // LD B, V0

	if c.RAM[0x300] != 2 || c.RAM[0x301] != 3 || c.RAM[0x302] != 4 {
		t.Fatalf("ram[0x300:0x303] = %v, want [2 3 4]", c.RAM[0x300:0x303])
	}
}

func TestLDIVxRoundTrip(t *testing.T) {
	c := newCore(t)
	for i := range c.GPR {
		c.GPR[i] = byte(i * 7)
	}
	c.Index = 0x300

	step(t, c, 0xF555) // LD [I], V5 (stores V0..V5)

	for i := range c.GPR {
		c.GPR[i] = 0xAA
	}

	step(t, c, 0xF565) // LD V5, [I] (loads V0..V5)

	for i := 0; i <= 5; i++ {
		want := byte(i * 7)
		if c.GPR[i] != want {
			t.Fatalf("GPR[%d] = %d, want %d", i, c.GPR[i], want)
		}
	}
	for i := 6; i < 16; i++ {
		if c.GPR[i] != 0xAA {
			t.Fatalf("GPR[%d] = %d, was clobbered by the roundtrip", i, c.GPR[i])
		}
	}
}

func TestSkipChain(t *testing.T) {
	c := newCore(t)
	c.GPR[2] = 5

	start := c.PC
	step(t, c, 0x3205) // SE V2, 0x05 -- matches, should skip
	if c.PC != start+4 {
		t.Fatalf("PC = %03X, want %03X (skip taken)", c.PC, start+4)
	}

	c2 := newCore(t)
	c2.GPR[2] = 5
	start2 := c2.PC
	step(t, c2, 0x3204) // SE V2, 0x04 -- no match, should not skip
	if c2.PC != start2+2 {
		t.Fatalf("PC = %03X, want %03X (no skip)", c2.PC, start2+2)
	}
}

func TestCallRet(t *testing.T) {
	c := newCore(t)
	start := c.PC

	step(t, c, 0x2300) // CALL 0x300
	if c.PC != 0x300 || c.SP != 1 {
		t.Fatalf("after CALL: pc=%03X sp=%d, want pc=300 sp=1", c.PC, c.SP)
	}

	step(t, c, 0x00EE) // RET
	if c.PC != start+2 || c.SP != 0 {
		t.Fatalf("after RET: pc=%03X sp=%d, want pc=%03X sp=0", c.PC, c.SP, start+2)
	}
}

func TestTickTimers(t *testing.T) {
	c := newCore(t)
	c.GPR[0] = 30
	step(t, c, 0xF015) // LD DT, V0

	for i := 0; i < 30; i++ {
		c.TickTimers()
	}
	if c.Delay != 0 {
		t.Fatalf("Delay = %d after 30 ticks, want 0", c.Delay)
	}

	c.TickTimers()
	if c.Delay != 0 {
		t.Fatalf("Delay = %d after 31st tick, want 0 (floored)", c.Delay)
	}
}

func TestUnimplementedOpcode(t *testing.T) {
	c := newCore(t)
	c.RAM[c.PC] = 0x00
	c.RAM[c.PC+1] = 0x01 // not CLS/RET, not a syscall we implement

	_, err := (Interpreter{}).Step(c)
	if _, ok := err.(UnimplementedOpcodeError); !ok {
		t.Fatalf("err = %v (%T), want UnimplementedOpcodeError", err, err)
	}
}

func TestLDVxKBlocksUntilKeyHeld(t *testing.T) {
	c := newCore(t)
	start := c.PC
	c.RAM[c.PC] = 0xF0
	c.RAM[c.PC+1] = 0x0A // LD V0, K

	if _, err := (Interpreter{}).Step(c); err != nil {
		t.Fatal(err)
	}
	if c.PC != start {
		t.Fatalf("PC = %03X, want %03X (still blocked)", c.PC, start)
	}

	c.KeyState[0xB] = true
	if _, err := (Interpreter{}).Step(c); err != nil {
		t.Fatal(err)
	}
	if c.PC != start+2 {
		t.Fatalf("PC = %03X, want %03X (resolved)", c.PC, start+2)
	}
	if c.GPR[0] != 0xB {
		t.Fatalf("V0 = %X, want B", c.GPR[0])
	}
}
