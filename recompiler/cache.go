// Package recompiler turns CHIP-8 guest opcodes into runs of native
// x86-64 host code, cached per guest address, and exposes the same
// Executor surface chip8.Interpreter does. It is organized the way the
// teacher's assembler/disassembler pair organizes a byte stream: a flat
// arena (CodeCache) that bytes get appended to, and an index on top
// (BlockTable) that remembers where each guest address's translation
// begins within that arena.
package recompiler

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// cacheSize is the fixed size of the native code arena. 16KiB comfortably
// holds several hundred small translated blocks; when it fills up the
// whole arena (and every BlockTable entry pointing into it) is reset.
const cacheSize = 16 * 1024

// resetLeeway is how much headroom a reservation must leave before the
// cache is considered full. A block is assembled in a separate buffer and
// copied into the arena by a single Emit call, so the leeway only has to
// cover the largest plausible block.
const resetLeeway = 1024

// CodeCache is a single read+write+execute memory arena that native
// block translations are appended to. It owns its own mmap'd pages, not
// a plain Go slice, because emitted bytes must later be executed as
// machine code -- something the Go runtime's ordinary (non-executable)
// heap cannot do.
type CodeCache struct {
	mem    []byte
	cursor int
}

// NewCodeCache mmaps a fresh RWX arena. CHIP-8 programs are trusted input
// (there is no guest/host security boundary to defend, unlike a browser
// JIT), so the simpler single RWX mapping is used instead of a W^X
// toggle between emit and execute phases.
func NewCodeCache() (*CodeCache, error) {
	mem, err := unix.Mmap(-1, 0, cacheSize,
		unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("recompiler: mmap code cache: %w", err)
	}
	return &CodeCache{mem: mem}, nil
}

// Close unmaps the arena. Safe to call once; the CodeCache must not be
// used afterward.
func (c *CodeCache) Close() error {
	if c.mem == nil {
		return nil
	}
	err := unix.Munmap(c.mem)
	c.mem = nil
	return err
}

// NearExhausted reports whether the next reservation of the largest
// plausible block body could overrun the arena.
func (c *CodeCache) NearExhausted() bool {
	return c.cursor+resetLeeway > cacheSize
}

// Reset rewinds the cursor so the arena can be reused from scratch. It
// does not zero the bytes; every live BlockTable entry is invalidated by
// the caller in the same breath, so nothing will read stale code.
func (c *CodeCache) Reset() {
	c.cursor = 0
}

// Emit appends code bytes to the arena and advances the cursor, returning
// the address the bytes were written at.
func (c *CodeCache) Emit(code []byte) (uintptr, error) {
	if c.cursor+len(code) > cacheSize {
		return 0, CacheExhaustionError{Requested: len(code), Remaining: cacheSize - c.cursor}
	}
	base := uintptr(unsafe.Pointer(&c.mem[c.cursor]))
	copy(c.mem[c.cursor:], code)
	c.cursor += len(code)
	return base, nil
}

// Dump returns a copy of every byte emitted so far, for offline host-code
// disassembly on shutdown.
func (c *CodeCache) Dump() []byte {
	out := make([]byte, c.cursor)
	copy(out, c.mem[:c.cursor])
	return out
}
