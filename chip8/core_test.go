package chip8

import "testing"

func TestLoadROMPlacesFontAndProgram(t *testing.T) {
	c := &CoreState{}
	if err := c.LoadROM([]byte{0xAB, 0xCD}); err != nil {
		t.Fatal(err)
	}

	if c.PC != ProgramBase {
		t.Fatalf("PC = %03X, want %03X", c.PC, ProgramBase)
	}
	if c.RAM[0] != Font[0] {
		t.Fatalf("font not resident at RAM[0]")
	}
	if c.RAM[ProgramBase] != 0xAB || c.RAM[ProgramBase+1] != 0xCD {
		t.Fatalf("program not loaded at %03X", ProgramBase)
	}
}

func TestLoadROMTooLarge(t *testing.T) {
	c := &CoreState{}
	big := make([]byte, RAMSize)

	if err := c.LoadROM(big); err == nil {
		t.Fatal("expected FatalStartupError for oversized ROM")
	} else if _, ok := err.(FatalStartupError); !ok {
		t.Fatalf("err = %v (%T), want FatalStartupError", err, err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("expected error for empty config")
	}

	cfg := Config{Speed: 600, ROMPath: "game.ch8"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.PerFrameQuota() != 10 {
		t.Fatalf("PerFrameQuota = %d, want 10", cfg.PerFrameQuota())
	}
}

func TestPressReleaseKey(t *testing.T) {
	c := &CoreState{}
	c.Reset()

	c.PressKey(0xA)
	if !c.KeyState[0xA] {
		t.Fatal("key 0xA should be pressed")
	}

	c.ReleaseKey(0xA)
	if c.KeyState[0xA] {
		t.Fatal("key 0xA should be released")
	}

	// out-of-range keys are ignored, not a panic
	c.PressKey(99)
	c.ReleaseKey(-1)
}
