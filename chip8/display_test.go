package chip8

import "testing"

func TestDrawSpriteCollision(t *testing.T) {
	var display [DisplayHeight]uint64
	var ram [RAMSize]byte
	ram[0x300] = 0xFF

	vf := DrawSprite(&display, &ram, 0x300, 0, 5, 1)
	if vf != 0 {
		t.Fatalf("first draw: VF = %d, want 0", vf)
	}
	if display[5] != 0xFF00000000000000 {
		t.Fatalf("display[5] = %016X, want FF00000000000000", display[5])
	}

	vf = DrawSprite(&display, &ram, 0x300, 0, 5, 1)
	if vf != 1 {
		t.Fatalf("second draw: VF = %d, want 1 (collision)", vf)
	}
	if display[5] != 0 {
		t.Fatalf("display[5] after erase = %016X, want 0", display[5])
	}
}

func TestDrawSpriteClipsOffRightEdge(t *testing.T) {
	var display [DisplayHeight]uint64
	var ram [RAMSize]byte
	ram[0x300] = 0xFF

	DrawSprite(&display, &ram, 0x300, 60, 0, 1)

	want := uint64(0xFF00000000000000) >> 60
	if display[0] != want {
		t.Fatalf("display[0] = %016X, want %016X", display[0], want)
	}
}

func TestDrawSpriteClipsOffBottom(t *testing.T) {
	var display [DisplayHeight]uint64
	var ram [RAMSize]byte
	for i := 0; i < 8; i++ {
		ram[0x300+i] = 0xFF
	}

	DrawSprite(&display, &ram, 0x300, 0, DisplayHeight-2, 8)

	if display[DisplayHeight-1] == 0 {
		t.Fatalf("row %d should have been drawn", DisplayHeight-1)
	}
}

func TestClearDisplay(t *testing.T) {
	display := [DisplayHeight]uint64{1, 2, 3}
	ClearDisplay(&display)

	for i, row := range display {
		if row != 0 {
			t.Fatalf("row %d = %X, want 0", i, row)
		}
	}
}
