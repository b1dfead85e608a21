package recompiler

import "github.com/massung/chip8dynarec/chip8"

// decodeCache remembers a previously decoded opcode at a guest address so
// a second visit skips FetchOpcode and Decode, at the cost of remembering
// which pages to drop on self-modification -- the same page-granular
// BlockTable.InvalidateRange Dynarec uses, just storing decoded
// opcodes instead of native code.
type decodeCache struct {
	pages [numPages]*[pageSize]*chip8.Opcode
}

func (d *decodeCache) get(pc uint16) *chip8.Opcode {
	page, slot := pageAndSlot(pc)
	p := d.pages[page]
	if p == nil {
		return nil
	}
	return p[slot]
}

func (d *decodeCache) set(pc uint16, op chip8.Opcode) {
	page, slot := pageAndSlot(pc)
	if d.pages[page] == nil {
		d.pages[page] = &[pageSize]*chip8.Opcode{}
	}
	d.pages[page][slot] = &op
}

func (d *decodeCache) invalidateRange(start uint16, length int) {
	if length <= 0 {
		return
	}
	end := int(start) + length - 1
	firstPage, _ := pageAndSlot(start)
	lastPage, _ := pageAndSlot(uint16(end))
	for p := firstPage; p <= lastPage && p < numPages; p++ {
		d.pages[p] = nil
	}
}

func (d *decodeCache) reset() {
	for i := range d.pages {
		d.pages[i] = nil
	}
}

// CachedInterpreter is the middle tier: it still executes every opcode in
// Go via chip8.Exec, but skips re-fetching and re-decoding an address
// it's seen before. It implements chip8.Executor.
type CachedInterpreter struct {
	decoded decodeCache
}

var _ chip8.Executor = (*CachedInterpreter)(nil)

// Step implements chip8.Executor.
func (c *CachedInterpreter) Step(core *chip8.CoreState) (uint32, error) {
	pc := core.PC

	op := c.decoded.get(pc)
	if op == nil {
		decodedOp := chip8.Decode(chip8.FetchOpcode(&core.RAM, pc))
		c.decoded.set(pc, decodedOp)
		op = &decodedOp
	}

	core.PC += 2

	start, length, writesRAM := memoryWriteSpan(core, *op)
	if err := chip8.Exec(core, *op); err != nil {
		return 0, err
	}
	if writesRAM {
		c.decoded.invalidateRange(start, length)
	}

	return 1, nil
}

// Invalidate implements chip8.Executor.
func (c *CachedInterpreter) Invalidate(start, end uint16) {
	if end <= start {
		return
	}
	c.decoded.invalidateRange(start, int(end-start))
}

// Reset implements chip8.Executor.
func (c *CachedInterpreter) Reset() {
	c.decoded.reset()
}
