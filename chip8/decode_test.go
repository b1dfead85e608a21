package chip8

import "testing"

func TestDecodeFields(t *testing.T) {
	op := Decode(0xD1A3)

	if op.Id != 0xD {
		t.Errorf("Id = %X, want D", op.Id)
	}
	if op.NNN != 0x1A3 {
		t.Errorf("NNN = %03X, want 1A3", op.NNN)
	}
	if op.KK != 0xA3 {
		t.Errorf("KK = %02X, want A3", op.KK)
	}
	if op.X != 0x1 {
		t.Errorf("X = %X, want 1", op.X)
	}
	if op.Y != 0xA {
		t.Errorf("Y = %X, want A", op.Y)
	}
	if op.N != 0x3 {
		t.Errorf("N = %X, want 3", op.N)
	}
}

func TestFetchOpcode(t *testing.T) {
	var ram [RAMSize]byte
	ram[0x200] = 0x12
	ram[0x201] = 0x34

	if op := FetchOpcode(&ram, 0x200); op != 0x1234 {
		t.Errorf("FetchOpcode = %04X, want 1234", op)
	}
}
