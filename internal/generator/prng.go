package generator

import "unicode/utf16"

// Mulberry32 is a 32-bit state generator. Its output is bit-exact with the
// published daily challenges, so the constants must never change.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 seeds a generator.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 advances the state and returns the next mixed value.
func (m *Mulberry32) Uint32() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// Float64 returns a value in [0, 1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296.0
}

// HashSeed folds s into a signed 32-bit seed with hash = hash*31 + unit over UTF-16 code units.
func HashSeed(s string) int32 {
	var hash int32
	for _, unit := range utf16.Encode([]rune(s)) {
		hash = hash*31 + int32(unit)
	}
	return hash
}
