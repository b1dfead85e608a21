package chip8

// DrawSprite XOR-blits an n-byte sprite from ram[index:index+n] onto the
// display at (vx, vy), wrapping the start coordinate but clipping rows
// that run off the bottom and columns that shift off the right edge. It
// returns the collision flag (VF): 1 iff any pixel was turned off.
//
// Every execution tier draws through this function: the interpreter and
// the cached interpreter call it from drw, and the full recompiler never
// compiles DRW natively, running it as a single interpreted step outside
// any compiled block, since encoding the per-row shift-and-test-and-XOR
// sequence as host machine code is not worth the emitter complexity for
// an op that only fires a few times a frame.
func DrawSprite(d *[DisplayHeight]uint64, ram *[RAMSize]byte, index uint16, vx, vy, n uint8) uint8 {
	startX := vx & (DisplayWidth - 1)
	startY := vy & (DisplayHeight - 1)

	var collision uint8

	for row := uint8(0); row < n; row++ {
		y := int(startY) + int(row)
		if y >= DisplayHeight {
			break // clipped off the bottom, no wrap
		}

		spriteByte := ram[int(index)+int(row)]

		// place the 8 sprite bits at columns startX..startX+8; shifting
		// right by startX may push bits off the right edge, which are
		// simply dropped (right clipping, no wrap).
		spriteLine := (uint64(spriteByte) << 56) >> startX

		before := d[y]
		d[y] = before ^ spriteLine

		if before&spriteLine != 0 {
			collision = 1
		}
	}

	return collision
}

// ClearDisplay zeroes every row (CLS, 00E0).
func ClearDisplay(d *[DisplayHeight]uint64) {
	*d = [DisplayHeight]uint64{}
}
