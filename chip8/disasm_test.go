package chip8

import "testing"

func TestDisassembleKnownOpcodes(t *testing.T) {
	cases := []struct {
		raw  uint16
		want string
	}{
		{0x00E0, "CLS"},
		{0x00EE, "RET"},
		{0x1234, "JP     #0234"},
		{0x6A2A, "LD     VA, #2A"},
		{0x8122, "AND    V1, V2"},
		{0xD015, "DRW    V0, V1, 5"},
		{0xF055, "LD     [I], V0"},
	}

	var core CoreState
	for _, c := range cases {
		core.RAM[0x200] = byte(c.raw >> 8)
		core.RAM[0x201] = byte(c.raw)

		got := core.Disassemble(0x200)
		want := "0200 - " + c.want
		if got != want {
			t.Errorf("Disassemble(%04X) = %q, want %q", c.raw, got, want)
		}
	}
}

func TestDisassembleOutOfRange(t *testing.T) {
	var core CoreState
	if got := core.Disassemble(uint16(RAMSize - 1)); got != "" {
		t.Errorf("Disassemble at last byte = %q, want empty", got)
	}
}
