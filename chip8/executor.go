package chip8

// Executor is the capability set spec.md's design notes call out as shared
// by all three execution tiers (pure interpreter, cached interpreter,
// full recompiler): step one unit of work and report cycles consumed,
// invalidate any cached code overlapping a guest address range, and reset
// any cache to empty. A frame driver picks one implementation at startup;
// they are variants, not a class hierarchy.
type Executor interface {
	// Step runs at least one CHIP-8 instruction starting at core.PC and
	// returns how many were retired.
	Step(core *CoreState) (cycles uint32, err error)

	// Invalidate discards any compiled code whose guest span could
	// overlap [start, end). Pure interpreters no-op this.
	Invalidate(start, end uint16)

	// Reset discards all compiled code. Pure interpreters no-op this.
	Reset()
}
