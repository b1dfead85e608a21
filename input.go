package main

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

var (
	// KeyMap maps modern keyboard scancodes onto the CHIP-8's 16-key pad,
	// in the layout the teacher's own demo uses.
	KeyMap = map[sdl.Scancode]int{
		sdl.SCANCODE_X: 0x0,
		sdl.SCANCODE_1: 0x1,
		sdl.SCANCODE_2: 0x2,
		sdl.SCANCODE_3: 0x3,
		sdl.SCANCODE_Q: 0x4,
		sdl.SCANCODE_W: 0x5,
		sdl.SCANCODE_E: 0x6,
		sdl.SCANCODE_A: 0x7,
		sdl.SCANCODE_S: 0x8,
		sdl.SCANCODE_D: 0x9,
		sdl.SCANCODE_Z: 0xA,
		sdl.SCANCODE_C: 0xB,
		sdl.SCANCODE_4: 0xC,
		sdl.SCANCODE_R: 0xD,
		sdl.SCANCODE_F: 0xE,
		sdl.SCANCODE_V: 0xF,
	}
)

// ProcessEvents drains the SDL event queue, mapping keys onto the guest
// keypad and a handful of demo-only controls (reboot, pause, speed,
// reload). It returns false once the window has been asked to close.
func ProcessEvents() bool {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.DropEvent:
			if err := loadROM(ev.File); err != nil {
				Debug.Log(err.Error())
			}
		case *sdl.KeyboardEvent:
			if ev.Repeat != 0 {
				continue
			}

			if key, ok := KeyMap[ev.Keysym.Scancode]; ok {
				if ev.Type == sdl.KEYDOWN {
					Core.PressKey(key)
				} else {
					Core.ReleaseKey(key)
				}
				continue
			}

			if ev.Type != sdl.KEYUP {
				continue
			}

			switch ev.Keysym.Scancode {
			case sdl.SCANCODE_ESCAPE:
				return false
			case sdl.SCANCODE_BACKSPACE:
				Debug.Logln("Rebooting")
				if err := loadROM(Config.ROMPath); err != nil {
					Debug.Log(err.Error())
				}
			case sdl.SCANCODE_F2:
				if Config.ROMPath != "" {
					if err := loadROM(Config.ROMPath); err != nil {
						Debug.Log(err.Error())
					}
				}
			case sdl.SCANCODE_F3:
				if path := pickROM(); path != "" {
					if err := loadROM(path); err != nil {
						Debug.Log(err.Error())
					}
				}
			case sdl.SCANCODE_F5, sdl.SCANCODE_SPACE:
				Paused = !Paused
			case sdl.SCANCODE_LEFTBRACKET:
				decSpeed()
			case sdl.SCANCODE_RIGHTBRACKET:
				incSpeed()
			}
		}
	}

	return true
}

// decSpeed and incSpeed adjust Config.Speed by 200 cycles/second, the
// teacher's own increment, floored so the guest never fully stops.
func decSpeed() {
	if Config.Speed > 200 {
		Config.Speed -= 200
	}
	Debug.Logln(fmt.Sprint("Speed: ", Config.Speed, " cycles/sec"))
}

func incSpeed() {
	Config.Speed += 200
	Debug.Logln(fmt.Sprint("Speed: ", Config.Speed, " cycles/sec"))
}
