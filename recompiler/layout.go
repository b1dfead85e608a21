package recompiler

import (
	"unsafe"

	"github.com/massung/chip8dynarec/chip8"
)

// Field offsets into chip8.CoreState, computed once via unsafe.Offsetof
// rather than hand-maintained as magic constants -- the struct is free to
// gain or reorder fields and every native emitter here keeps pointing at
// the right byte.
var (
	offRAM      = int32(unsafe.Offsetof(chip8.CoreState{}.RAM))
	offPC       = int32(unsafe.Offsetof(chip8.CoreState{}.PC))
	offSP       = int32(unsafe.Offsetof(chip8.CoreState{}.SP))
	offIndex    = int32(unsafe.Offsetof(chip8.CoreState{}.Index))
	offGPR      = int32(unsafe.Offsetof(chip8.CoreState{}.GPR))
	offStack    = int32(unsafe.Offsetof(chip8.CoreState{}.Stack))
	offDisplay  = int32(unsafe.Offsetof(chip8.CoreState{}.Display))
)

// gprOffset returns the byte offset of GPR[reg] within CoreState.
func gprOffset(reg byte) int32 { return offGPR + int32(reg) }

// displayRowOffset returns the byte offset of Display[row] within CoreState.
func displayRowOffset(row int) int32 { return offDisplay + int32(row)*8 }

// stackOffset returns the byte offset of Stack[depth] within CoreState.
func stackOffset(depth uint8) int32 { return offStack + int32(depth)*2 }
