//go:build !amd64

package recompiler

// callBlock has no implementation outside amd64: the recompiler only
// ever emits x86-64 machine code. Neither NewDynarec nor CachedInterpreter
// (a bare struct literal) check runtime.GOARCH, so both construct cleanly
// on any platform; this stub only panics the first time a compiled block
// is actually invoked, which happens no earlier than the first Step call.
func callBlock(entry, core uintptr) {
	panic("recompiler: native code execution is only supported on amd64")
}
