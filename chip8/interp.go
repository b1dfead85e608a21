package chip8

import "math/rand"

// Interpreter is the pure reference executor: it fetches, decodes and
// dispatches one instruction per Step call and always reports one cycle.
// Every opcode semantics function here is also the fallback the cached
// interpreter and full recompiler call back into for opcodes they don't
// (or choose not to) emit native code for, so this file is the one place
// CHIP-8 semantics are defined.
type Interpreter struct{}

var _ Executor = Interpreter{}

// Invalidate and Reset are no-ops: there is no cache to invalidate.
func (Interpreter) Invalidate(uint16, uint16) {}
func (Interpreter) Reset()                    {}

// Step fetches, decodes and executes exactly one instruction. Fx0A (LD
// Vx, K) blocks by re-fetching itself every step until a key is held, so
// a "blocked" step still retires one cycle.
func (Interpreter) Step(core *CoreState) (uint32, error) {
	op := FetchOpcode(&core.RAM, core.PC)
	core.PC += 2

	if err := execOne(core, Decode(op)); err != nil {
		return 0, err
	}

	return 1, nil
}

// Exec dispatches a single already-decoded opcode against core, without
// touching core.PC itself. It exists so the cached-interpreter tier can
// reuse a decode it cached on an earlier visit to the same address
// instead of re-fetching and re-decoding every step.
func Exec(core *CoreState, op Opcode) error {
	return execOne(core, op)
}

// execOne dispatches a single decoded opcode against core. Other packages
// reach it only through Exec (the cached-interpreter tier) or through
// Interpreter.Step (the dynarec tier's interpreted fallback); no emitted
// code calls it.
func execOne(core *CoreState, op Opcode) error {
	switch op.Id {
	case 0x0:
		switch op.KK {
		case 0xE0:
			cls(core, op)
		case 0xEE:
			ret(core, op)
		default:
			return UnimplementedOpcodeError{Opcode: op.Raw, PC: core.PC - 2}
		}
	case 0x1:
		jp(core, op)
	case 0x2:
		call(core, op)
	case 0x3:
		se(core, op)
	case 0x4:
		sne(core, op)
	case 0x5:
		if op.N != 0 {
			return UnimplementedOpcodeError{Opcode: op.Raw, PC: core.PC - 2}
		}
		seVxVy(core, op)
	case 0x6:
		ldVxByte(core, op)
	case 0x7:
		addVxByte(core, op)
	case 0x8:
		switch op.N {
		case 0x0:
			ldVxVy(core, op)
		case 0x1:
			or(core, op)
		case 0x2:
			and(core, op)
		case 0x3:
			xor(core, op)
		case 0x4:
			addVxVy(core, op)
		case 0x5:
			sub(core, op)
		case 0x6:
			shr(core, op)
		case 0x7:
			subn(core, op)
		case 0xE:
			shl(core, op)
		default:
			return UnimplementedOpcodeError{Opcode: op.Raw, PC: core.PC - 2}
		}
	case 0x9:
		if op.N != 0 {
			return UnimplementedOpcodeError{Opcode: op.Raw, PC: core.PC - 2}
		}
		sneVxVy(core, op)
	case 0xA:
		ldI(core, op)
	case 0xB:
		jpV0(core, op)
	case 0xC:
		rnd(core, op)
	case 0xD:
		drw(core, op)
	case 0xE:
		switch op.KK {
		case 0x9E:
			skp(core, op)
		case 0xA1:
			sknp(core, op)
		default:
			return UnimplementedOpcodeError{Opcode: op.Raw, PC: core.PC - 2}
		}
	case 0xF:
		switch op.KK {
		case 0x07:
			ldVxDT(core, op)
		case 0x0A:
			ldVxK(core, op)
		case 0x15:
			ldDTVx(core, op)
		case 0x18:
			ldSTVx(core, op)
		case 0x1E:
			addIVx(core, op)
		case 0x29:
			ldFVx(core, op)
		case 0x33:
			ldBVx(core, op)
		case 0x55:
			ldIVx(core, op)
		case 0x65:
			ldVxI(core, op)
		default:
			return UnimplementedOpcodeError{Opcode: op.Raw, PC: core.PC - 2}
		}
	default:
		return UnimplementedOpcodeError{Opcode: op.Raw, PC: core.PC - 2}
	}

	return nil
}

func cls(core *CoreState, _ Opcode) {
	ClearDisplay(&core.Display)
}

func ret(core *CoreState, _ Opcode) {
	core.SP--
	core.PC = core.Stack[core.SP]
}

func jp(core *CoreState, op Opcode) {
	core.PC = op.NNN
}

func call(core *CoreState, op Opcode) {
	core.Stack[core.SP] = core.PC
	core.SP++
	core.PC = op.NNN
}

func se(core *CoreState, op Opcode) {
	if core.GPR[op.X] == op.KK {
		core.PC += 2
	}
}

func sne(core *CoreState, op Opcode) {
	if core.GPR[op.X] != op.KK {
		core.PC += 2
	}
}

func seVxVy(core *CoreState, op Opcode) {
	if core.GPR[op.X] == core.GPR[op.Y] {
		core.PC += 2
	}
}

func sneVxVy(core *CoreState, op Opcode) {
	if core.GPR[op.X] != core.GPR[op.Y] {
		core.PC += 2
	}
}

func ldVxByte(core *CoreState, op Opcode) {
	core.GPR[op.X] = op.KK
}

func addVxByte(core *CoreState, op Opcode) {
	core.GPR[op.X] += op.KK
}

func ldVxVy(core *CoreState, op Opcode) {
	core.GPR[op.X] = core.GPR[op.Y]
}

func or(core *CoreState, op Opcode) {
	core.GPR[op.X] |= core.GPR[op.Y]
}

func and(core *CoreState, op Opcode) {
	core.GPR[op.X] &= core.GPR[op.Y]
}

func xor(core *CoreState, op Opcode) {
	core.GPR[op.X] ^= core.GPR[op.Y]
}

// addVxVy: Vx += Vy, VF = 1 iff the sum overflowed a byte. Flag is
// assigned after computing the sum so that X==0xF reads the pre-add
// value to decide the carry.
func addVxVy(core *CoreState, op Opcode) {
	sum := uint16(core.GPR[op.X]) + uint16(core.GPR[op.Y])
	core.GPR[op.X] = byte(sum)

	if sum > 0xFF {
		core.GPR[0xF] = 1
	} else {
		core.GPR[0xF] = 0
	}
}

// sub: Vx -= Vy, VF = 1 iff Vx > Vy before the subtraction (NOT borrow,
// unsigned comparison per spec.md's resolution of the signed/unsigned
// ambiguity observed across reference implementations).
func sub(core *CoreState, op Opcode) {
	a, b := core.GPR[op.X], core.GPR[op.Y]
	core.GPR[op.X] = a - b

	if a > b {
		core.GPR[0xF] = 1
	} else {
		core.GPR[0xF] = 0
	}
}

// shr: VF = original LSB of Vx, taken before the shift.
func shr(core *CoreState, op Opcode) {
	v := core.GPR[op.X]
	core.GPR[op.X] = v >> 1
	core.GPR[0xF] = v & 1
}

// subn: Vx = Vy - Vx, VF = 1 iff Vy > Vx before the subtraction.
func subn(core *CoreState, op Opcode) {
	a, b := core.GPR[op.X], core.GPR[op.Y]
	core.GPR[op.X] = b - a

	if b > a {
		core.GPR[0xF] = 1
	} else {
		core.GPR[0xF] = 0
	}
}

// shl: VF = original MSB of Vx, taken before the shift.
func shl(core *CoreState, op Opcode) {
	v := core.GPR[op.X]
	core.GPR[op.X] = v << 1
	core.GPR[0xF] = v >> 7
}

func ldI(core *CoreState, op Opcode) {
	core.Index = op.NNN & 0xFFF
}

func jpV0(core *CoreState, op Opcode) {
	core.PC = op.NNN + uint16(core.GPR[0])
}

func rnd(core *CoreState, op Opcode) {
	core.GPR[op.X] = byte(rand.Intn(256)) & op.KK
}

func drw(core *CoreState, op Opcode) {
	core.GPR[0xF] = DrawSprite(&core.Display, &core.RAM, core.Index, core.GPR[op.X], core.GPR[op.Y], op.N)
}

func skp(core *CoreState, op Opcode) {
	if core.KeyState[core.GPR[op.X]&0xF] {
		core.PC += 2
	}
}

func sknp(core *CoreState, op Opcode) {
	if !core.KeyState[core.GPR[op.X]&0xF] {
		core.PC += 2
	}
}

func ldVxDT(core *CoreState, op Opcode) {
	core.GPR[op.X] = core.Delay
}

// ldVxK implements the "block" by rewinding PC 2 bytes when no key is
// currently held, so the very same opcode is re-fetched and re-executed
// next step; there is no separate suspended state to resolve.
func ldVxK(core *CoreState, op Opcode) {
	for i, pressed := range core.KeyState {
		if pressed {
			core.GPR[op.X] = byte(i)
			return
		}
	}

	core.PC -= 2
}

func ldDTVx(core *CoreState, op Opcode) {
	core.Delay = core.GPR[op.X]
}

func ldSTVx(core *CoreState, op Opcode) {
	core.Sound = core.GPR[op.X]
}

func addIVx(core *CoreState, op Opcode) {
	core.Index = (core.Index + uint16(core.GPR[op.X])) & 0xFFF
}

func ldFVx(core *CoreState, op Opcode) {
	core.Index = uint16(core.GPR[op.X]) * 5
}

func ldBVx(core *CoreState, op Opcode) {
	v := core.GPR[op.X]
	core.RAM[core.Index] = v / 100
	core.RAM[core.Index+1] = (v / 10) % 10
	core.RAM[core.Index+2] = v % 10
}

func ldIVx(core *CoreState, op Opcode) {
	for i := uint8(0); i <= op.X; i++ {
		core.RAM[core.Index+uint16(i)] = core.GPR[i]
	}
}

func ldVxI(core *CoreState, op Opcode) {
	for i := uint8(0); i <= op.X; i++ {
		core.GPR[i] = core.RAM[core.Index+uint16(i)]
	}
}
