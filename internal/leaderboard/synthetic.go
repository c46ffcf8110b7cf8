package leaderboard

import (
	"math"

	"github.com/verte-zerg/typerank/internal/generator"
	"github.com/verte-zerg/typerank/internal/model"
)

const seedFactor = 7919

type profile struct {
	name      string
	baseWPM   float64
	peakWPM   float64
	specialty int
	accuracy  float64
}

// roster is fixed; its order drives the jitter sequence.
var roster = []profile{
	{"keystorm", 128, 142, 15, 98.1},
	{"quietfingers", 118, 131, 60, 98.9},
	{"homerow_hero", 112, 126, 30, 97.6},
	{"tapdancer", 104, 119, 15, 96.8},
	{"ligature", 101, 109, 120, 99.2},
	{"qwerty_queen", 96, 110, 30, 97.9},
	{"nightowl", 92, 99, 60, 96.4},
	{"swiftkey", 88, 101, 15, 95.7},
	{"monospace", 85, 92, 120, 98.4},
	{"clackclack", 81, 90, 30, 95.9},
	{"inkless", 78, 84, 60, 97.2},
	{"thumbwar", 74, 83, 15, 94.8},
	{"serif", 70, 76, 120, 98.0},
	{"capslock", 66, 74, 30, 93.9},
	{"backspace_bandit", 62, 68, 60, 91.5},
	{"pangram", 58, 63, 120, 96.6},
	{"typo_titan", 55, 61, 15, 90.2},
	{"steadyhands", 51, 55, 60, 97.8},
	{"newline", 47, 53, 30, 94.1},
	{"kerning", 44, 48, 120, 95.3},
	{"slowburn", 40, 44, 60, 96.9},
	{"hunt_n_peck", 34, 39, 15, 89.7},
	{"firstdraft", 29, 33, 30, 92.4},
	{"tabstop", 24, 27, 60, 93.0},
}

// modeMultiplier skews shorter tests faster.
func modeMultiplier(modeValue int) float64 {
	switch modeValue {
	case 15:
		return 1.12
	case 30:
		return 1.06
	case 60:
		return 1.00
	case 120:
		return 0.94
	default:
		return 1.00
	}
}

// Synthetic returns the synthetic population for a time test of modeValue seconds.
// The same modeValue always yields the same entries, in roster order.
func Synthetic(modeValue int) []model.LeaderboardEntry {
	rng := generator.NewMulberry32(uint32(int32(modeValue * seedFactor)))
	mult := modeMultiplier(modeValue)
	entries := make([]model.LeaderboardEntry, 0, len(roster))
	for _, p := range roster {
		raw := p.baseWPM
		if p.specialty == modeValue {
			raw = p.peakWPM
		}
		wpm := math.Floor(raw*mult + (rng.Float64()*2-1)*4 + 0.5)
		if wpm < 1 {
			wpm = 1
		}
		acc := math.Floor((p.accuracy+(rng.Float64()*2-1)*1.5)*100+0.5) / 100
		if acc > 100 {
			acc = 100
		}
		entries = append(entries, model.LeaderboardEntry{
			Username: p.name,
			WPM:      int(wpm),
			Accuracy: acc,
			IsDummy:  true,
		})
	}
	return entries
}
