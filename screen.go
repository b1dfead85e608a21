package main

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/massung/chip8dynarec/chip8"
)

var (
	// Screen is the render target the guest display is drawn into at
	// 1:1 scale before being stretched to fill the window.
	Screen *sdl.Texture
)

// InitScreen creates the render target for the CHIP-8 video memory.
func InitScreen() {
	var err error

	Screen, err = Renderer.CreateTexture(sdl.PIXELFORMAT_RGB888, sdl.TEXTUREACCESS_TARGET,
		chip8.DisplayWidth, chip8.DisplayHeight)
	if err != nil {
		panic(err)
	}
}

// RefreshScreen redraws Screen from the guest's current display bitmap.
func RefreshScreen() {
	if err := Renderer.SetRenderTarget(Screen); err != nil {
		panic(err)
	}

	// background
	Renderer.SetDrawColor(143, 145, 133, 255)
	Renderer.Clear()

	// lit pixel color
	Renderer.SetDrawColor(17, 29, 43, 255)

	for y := 0; y < chip8.DisplayHeight; y++ {
		row := Core.Display[y]
		for x := 0; x < chip8.DisplayWidth; x++ {
			if row&(0x8000000000000000>>uint(x)) != 0 {
				Renderer.DrawPoint(int32(x), int32(y))
			}
		}
	}

	Renderer.SetRenderTarget(nil)
}

// CopyScreen stretches Screen to fill a destination rectangle on the
// window's renderer.
func CopyScreen(x, y, w, h int32) {
	src := sdl.Rect{W: chip8.DisplayWidth, H: chip8.DisplayHeight}
	Renderer.Copy(Screen, &src, &sdl.Rect{X: x, Y: y, W: w, H: h})
}
