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

// Command chip8dynarec is a small demo presenter: it opens a window, drives
// a chip8.Executor at a configured cycles/second, and renders the guest
// display through SDL. It is not a debugger: no breakpoints, stepping, or
// memory inspection -- just enough to watch a ROM run under any of the
// three execution tiers.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/massung/chip8dynarec/chip8"
	"github.com/massung/chip8dynarec/recompiler"
)

var (
	// Window is the global SDL window.
	Window *sdl.Window

	// Renderer is the global SDL renderer.
	Renderer *sdl.Renderer

	// Debug is the stderr log.
	Debug *Logger

	// Core is the CHIP-8 architectural state being driven.
	Core = &chip8.CoreState{}

	// Executor is the selected execution tier.
	Executor chip8.Executor

	// Config holds the active speed and ROM path.
	Config chip8.Config

	// Paused suspends the guest clock; the window keeps rendering.
	Paused bool
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		log.Fatal(err)
	}
	defer sdl.Quit()

	Debug = NewLog()
	Debug.Log("CHIP-8 dynamic recompiler demo")

	tierName := flag.String("tier", "recompiler", "Execution tier: interpreter, cached, recompiler.")
	speed := flag.Uint("speed", 500, "Guest cycles/second.")
	romPath := flag.String("rom", "", "Path to a ROM to load at startup; prompts if omitted.")
	flag.Parse()

	tier, err := recompiler.ParseTier(*tierName)
	if err != nil {
		log.Fatal(err)
	}

	Config = chip8.Config{Speed: uint32(*speed), ROMPath: *romPath}
	if Config.ROMPath == "" {
		Config.ROMPath = pickROM()
	}
	if err := Config.Validate(); err != nil {
		log.Fatal(err)
	}

	var closeExecutor func() error
	if Executor, closeExecutor, err = recompiler.New(tier); err != nil {
		log.Fatal(err)
	}
	defer closeExecutor()
	defer dumpCodeCache()

	if err := loadROM(Config.ROMPath); err != nil {
		log.Fatal(err)
	}

	createWindow()
	InitScreen()
	InitAudio()

	Debug.Logln("Running", filepath.Base(Config.ROMPath), "--", tier.String(), "tier,", Config.Speed, "cycles/sec")
	Debug.Log("[ / ] speed, SPACE pause, BACKSPACE reboot, F2 reload, F3 open")

	frame := time.NewTicker(time.Second / 60)
	defer frame.Stop()

	for ProcessEvents() {
		<-frame.C

		if !Paused {
			if err := runFrame(); err != nil {
				Debug.Log(err.Error())
				Paused = true
			}
		}

		RefreshScreen()
		redraw()
	}
}

// runFrame steps the guest CPU through one frame's cycle quota and ticks
// its timers once, per spec §5's timing contract (speed/60 cycles/frame).
func runFrame() error {
	quota := Config.PerFrameQuota()

	for ran := uint32(0); ran < quota; {
		cycles, err := Executor.Step(Core)
		if err != nil {
			return err
		}
		ran += cycles
	}

	Core.TickTimers()
	return nil
}

// loadROM loads a ROM into Core and discards any code the executor had
// compiled against whatever was previously resident.
func loadROM(path string) error {
	if err := Core.LoadROMFile(path); err != nil {
		return err
	}

	Executor.Reset()
	Paused = false
	Config.ROMPath = path

	Debug.Logln("Loaded", filepath.Base(path))
	return nil
}

// pickROM shows a native "open file" dialog, falling back to an empty
// string (a FatalStartup from Config.Validate) if the user cancels.
func pickROM() string {
	dlg := dialog.File().Title("Open CHIP-8 ROM")
	dlg.Filter("All Files", "*")
	dlg.Filter("ROM Files", "rom", "ch8", "c8")

	path, err := dlg.Load()
	if err != nil {
		return ""
	}
	return path
}

// createWindow creates the SDL window and renderer or panics.
func createWindow() {
	var err error

	Window, Renderer, err = sdl.CreateWindowAndRenderer(
		chip8.DisplayWidth*scale, chip8.DisplayHeight*scale, sdl.WINDOW_OPENGL)
	if err != nil {
		panic(err)
	}

	Window.SetTitle("CHIP-8")
}

// scale is the integer window-to-guest-display magnification.
const scale = 10

// redraw clears the renderer, stretches the guest display into it, and
// presents the frame.
func redraw() {
	Renderer.SetDrawColor(32, 42, 53, 255)
	Renderer.Clear()

	CopyScreen(0, 0, chip8.DisplayWidth*scale, chip8.DisplayHeight*scale)

	Renderer.Present()
}

// dumpCodeCache writes every byte the recompiler tier ever emitted to
// emittedcode.bin on a clean shutdown, for offline host-code disassembly.
// Tiers that never emit native code (interpreter, cached interpreter)
// don't implement this, so it's a no-op for them.
func dumpCodeCache() {
	dumper, ok := Executor.(interface{ Dump() ([]byte, error) })
	if !ok {
		return
	}

	code, err := dumper.Dump()
	if err != nil {
		Debug.Log(err.Error())
		return
	}

	if err := os.WriteFile("emittedcode.bin", code, 0644); err != nil {
		Debug.Log(err.Error())
	}
}
