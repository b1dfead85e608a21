package recompiler

import (
	"fmt"

	"github.com/massung/chip8dynarec/chip8"
)

// Tier selects which chip8.Executor implementation the frame driver runs.
type Tier int

const (
	TierInterpreter Tier = iota
	TierCachedInterpreter
	TierRecompiler
)

func (t Tier) String() string {
	switch t {
	case TierInterpreter:
		return "interpreter"
	case TierCachedInterpreter:
		return "cached-interpreter"
	case TierRecompiler:
		return "recompiler"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// ParseTier maps a CLI flag value to a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "interpreter":
		return TierInterpreter, nil
	case "cached", "cached-interpreter":
		return TierCachedInterpreter, nil
	case "recompiler", "dynarec":
		return TierRecompiler, nil
	}
	return 0, fmt.Errorf("recompiler: unknown tier %q", s)
}

// New constructs the chosen tier's Executor, along with a close function
// the caller must defer (a no-op for the tiers that own no native
// resources).
func New(tier Tier) (chip8.Executor, func() error, error) {
	switch tier {
	case TierInterpreter:
		return chip8.Interpreter{}, func() error { return nil }, nil
	case TierCachedInterpreter:
		return &CachedInterpreter{}, func() error { return nil }, nil
	case TierRecompiler:
		r, err := NewDynarec()
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	}
	return nil, nil, fmt.Errorf("recompiler: unknown tier %d", tier)
}
