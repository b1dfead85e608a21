package recompiler

// callBlock invokes a native block translation produced by Dynarec,
// passing the CoreState pointer in the first integer argument the way
// the System V AMD64 calling convention and Assembler.Prologue both
// expect. It has no Go body; see call_amd64.s.
//
// This is the one place the recompiler leaves pure Go: there is no
// third-party substitute for "invoke a raw, just-emitted function
// pointer with one register argument" -- cgo would work but drags in a C
// toolchain for a four-instruction trampoline, so a small hand-written
// Go assembly stub is used instead, the same way low-level libraries in
// the wild (syscall shims, SIMD kernels) drop to .s files for the one
// sequence Go itself can't express.
func callBlock(entry, core uintptr)
