/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

// Package chip8 implements the CHIP-8 architectural state and the reference
// (pure-Go) interpreter semantics for every opcode. The dynamic recompiler
// that sits on top of this package lives in the sibling recompiler package;
// this package exists so both the interpreter and the recompiler's callback
// fallbacks share exactly one definition of "what an opcode does".
package chip8

import (
	"fmt"
	"io/ioutil"
)

const (
	// RAMSize is the addressable memory of a CHIP-8.
	RAMSize = 0x1000

	// ProgramBase is where ROMs are loaded; 0x000-0x04F is the font.
	ProgramBase = 0x200

	// DisplayWidth and DisplayHeight are the fixed CHIP-8 resolution.
	DisplayWidth  = 64
	DisplayHeight = 32

	// StackDepth is the maximum number of nested CALLs.
	StackDepth = 16
)

// CoreState is the entire architectural state of a CHIP-8 virtual machine.
// It is a value type laid out at a single, stable address for the lifetime
// of a dynarec block: the recompiler embeds this address (or, in the
// portable form used here, threads it through as the block's first
// parameter) and reads/writes its fields at known byte offsets.
type CoreState struct {
	// RAM is byte-addressable; 0x000-0x04F holds the built-in font, ROMs
	// load at ProgramBase.
	RAM [RAMSize]byte

	// Stack holds return addresses; top-of-stack is Stack[SP-1].
	Stack [StackDepth]uint16

	// PC is the program counter; legal range is 0x000-0xFFF and stays
	// even for unmodified code.
	PC uint16

	// SP is the stack pointer, 0..=StackDepth.
	SP uint8

	// Index is the address register, masked to 12 bits on write.
	Index uint16

	// Delay and Sound are the two countdown timers, decremented by the
	// frame driver at 60 Hz. Sound is audible while > 0.
	Delay uint8
	Sound uint8

	// GPR are the 16 general-purpose registers; GPR[0xF] also carries
	// the carry/borrow/collision flag written by arithmetic and DRW.
	GPR [16]byte

	// Display is 32 rows of 64 bits each, MSB = leftmost pixel.
	Display [DisplayHeight]uint64

	// KeyState is owned by the presenter and only read by the emulator.
	KeyState [16]bool
}

// Reset clears the whole machine: registers, stack, display, timers, keys
// and all of RAM, then puts the font back at 0x000 and PC at ProgramBase.
// Any loaded program is erased; LoadROM calls Reset before copying one in.
func (c *CoreState) Reset() {
	c.Stack = [StackDepth]uint16{}
	c.PC = ProgramBase
	c.SP = 0
	c.Index = 0
	c.Delay = 0
	c.Sound = 0
	c.GPR = [16]byte{}
	c.Display = [DisplayHeight]uint64{}
	c.KeyState = [16]bool{}

	c.RAM = [RAMSize]byte{}
	copy(c.RAM[:len(Font)], Font[:])
}

// LoadROM copies program bytes into RAM at ProgramBase and resets the rest
// of the architectural state. A ROM larger than the addressable space
// beyond ProgramBase is a FatalStartup error.
func (c *CoreState) LoadROM(program []byte) error {
	if len(program) > RAMSize-ProgramBase {
		return FatalStartupf("ROM too large: %d bytes, max %d", len(program), RAMSize-ProgramBase)
	}

	c.Reset()
	copy(c.RAM[ProgramBase:], program)

	return nil
}

// LoadROMFile reads a ROM from disk and loads it; a missing file is a
// FatalStartup error per the external interfaces contract.
func (c *CoreState) LoadROMFile(path string) error {
	program, err := ioutil.ReadFile(path)
	if err != nil {
		return FatalStartupf("could not read ROM %q: %v", path, err)
	}

	return c.LoadROM(program)
}

// PressKey emulates a CHIP-8 key going down.
func (c *CoreState) PressKey(key int) {
	if key >= 0 && key < len(c.KeyState) {
		c.KeyState[key] = true
	}
}

// ReleaseKey emulates a CHIP-8 key going up.
func (c *CoreState) ReleaseKey(key int) {
	if key >= 0 && key < len(c.KeyState) {
		c.KeyState[key] = false
	}
}

// TickTimers decrements Delay and Sound by one each, floored at zero. This
// is the frame driver's once-per-frame call described in spec §5's timing
// contract; it must not be invoked from within a dynarec block.
func (c *CoreState) TickTimers() {
	if c.Delay > 0 {
		c.Delay--
	}

	if c.Sound > 0 {
		c.Sound--
	}
}

// Font is the canonical 16x5-byte CHIP-8 hex digit glyph table, resident
// at RAM[0x000:0x050]. Fx29 computes Index = Vx*5 to select a glyph.
var Font = [16 * 5]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Config bundles the two startup parameters spec §6's init() takes.
type Config struct {
	// Speed is cycles/second the guest CPU should emulate.
	Speed uint32

	// ROMPath is the file to load at startup.
	ROMPath string
}

// Validate reports a FatalStartup error for an unusable configuration.
func (cfg Config) Validate() error {
	if cfg.ROMPath == "" {
		return FatalStartupf("no ROM path configured")
	}

	if cfg.Speed == 0 {
		return FatalStartupf("speed must be > 0 cycles/second")
	}

	return nil
}

// PerFrameQuota is how many cycles the frame driver should run before
// calling TickTimers, per spec §5: speed/60.
func (cfg Config) PerFrameQuota() uint32 {
	return cfg.Speed / 60
}

func (c *CoreState) String() string {
	return fmt.Sprintf("pc=%03X sp=%d index=%03X delay=%d sound=%d", c.PC, c.SP, c.Index, c.Delay, c.Sound)
}
