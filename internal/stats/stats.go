// Package stats contains typing metrics and their text rendering.
package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/typerank/internal/model"
)

const (
	// CharsPerWord is the standardized word length used for WPM.
	CharsPerWord = 5

	percentileMean = 42.0
	percentileSD   = 17.0
)

// round rounds half up, matching how scores have always been displayed.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// WPM converts correct characters over elapsed seconds into words per minute.
func WPM(correctChars int, elapsedSeconds float64) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	minutes := elapsedSeconds / 60
	return int(round((float64(correctChars) / CharsPerWord) / minutes))
}

// RawWPM is WPM over every typed character, including incorrect and extra ones.
func RawWPM(totalTypedChars int, elapsedSeconds float64) int {
	return WPM(totalTypedChars, elapsedSeconds)
}

// CPM returns characters per minute.
func CPM(chars int, elapsedSeconds float64) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	return int(round(float64(chars) / (elapsedSeconds / 60)))
}

// Accuracy returns the percentage of correct keystrokes with two decimals.
// An empty test is 100% accurate. Counters that break correct <= total are clamped.
func Accuracy(correctKeystrokes, totalKeystrokes int) float64 {
	if totalKeystrokes <= 0 {
		return 100
	}
	acc := round(float64(correctKeystrokes)/float64(totalKeystrokes)*10000) / 100
	return math.Max(0, math.Min(100, acc))
}

// Consistency is 100 minus the coefficient of variation of the positive samples.
func Consistency(samples []float64) float64 {
	values := make([]float64, 0, len(samples))
	for _, v := range samples {
		if v > 0 {
			values = append(values, v)
		}
	}
	if len(values) < 2 {
		return 100
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	stdDev := math.Sqrt(sq / float64(len(values)))
	cv := stdDev / mean * 100
	return math.Max(0, round((100-cv)*100)/100)
}

// NormalCDF approximates the standard normal CDF (Zelen & Severo, A&S 26.2.17).
func NormalCDF(x float64) float64 {
	t := 1 / (1 + 0.2316419*math.Abs(x))
	density := math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
	poly := t * (0.319381530 + t*(-0.356563782+t*(1.781477937+t*(-1.821255978+t*1.330274429))))
	if x > 0 {
		return 1 - density*poly
	}
	return density * poly
}

// WPMPercentile returns the "top N%" bucket for a speed, in [1, 99].
func WPMPercentile(wpm float64) int {
	z := (wpm - percentileMean) / percentileSD
	top := int(round(100 - NormalCDF(z)*100))
	if top < 1 {
		return 1
	}
	if top > 99 {
		return 99
	}
	return top
}

var cjkLanguages = map[string]struct{}{
	"ja": {},
	"zh": {},
	"ko": {},
}

// IsCJK reports whether speed is better shown per character for a language.
func IsCJK(lang string) bool {
	_, ok := cjkLanguages[strings.ToLower(lang)]
	return ok
}

// RateLabel is the unit shown next to a result's speed.
func RateLabel(lang string) string {
	if IsCJK(lang) {
		return "cpm"
	}
	return "wpm"
}

// SampleValues extracts the values of a series.
func SampleValues(samples []model.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Value
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := seriesMinMaxSingle(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
