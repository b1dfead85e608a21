package main

// typedef unsigned char byte;
// void Tone(void *data, byte *stream, int len);
import "C"

import (
	"reflect"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"
)

// Volume is the current tone volume: set to 1.0 while the guest's sound
// timer is non-zero, then ramped back down to 0.0 in 0.25 steps once it
// expires, so the tone doesn't click off at the sample boundary.
var Volume float32

// InitAudio opens a constant-tone audio device driven by Core.Sound.
func InitAudio() {
	spec := &sdl.AudioSpec{
		Freq:     2500,
		Format:   sdl.AUDIO_F32,
		Channels: 1,
		Samples:  32,
		Callback: sdl.AudioCallback(C.Tone),
	}

	if err := sdl.OpenAudio(spec, nil); err != nil {
		panic(err)
	}

	sdl.PauseAudio(false)
}

//export Tone
func Tone(_ unsafe.Pointer, stream *C.byte, length C.int) {
	p := uintptr(unsafe.Pointer(stream))
	n := int(length)

	buf := *(*[]C.float)(unsafe.Pointer(&reflect.SliceHeader{
		Data: p,
		Len:  n,
		Cap:  n,
	}))

	if Core.Sound > 0 {
		Volume = 1.0
	} else if Volume > 0.0 {
		Volume -= 0.25
	}

	for i := 0; i < n; i += 4 {
		buf[i] = C.float(Volume)
	}
}
