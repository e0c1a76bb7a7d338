package stats

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// Metrics holds the derived numbers for a session read.
type Metrics struct {
	WPM            int
	Accuracy       int
	Words          int
	ElapsedSeconds float64
}

// ElapsedMinutes returns the minutes between start and end. A zero start yields 0.
func ElapsedMinutes(start, end time.Time) float64 {
	if start.IsZero() || !end.After(start) {
		return 0
	}
	return float64(end.Sub(start)) / float64(time.Minute)
}

// WordsTyped counts whitespace-delimited non-empty tokens.
func WordsTyped(input string) int {
	return len(strings.Fields(input))
}

// WPM returns words per elapsed minute, rounded. Non-positive time yields 0.
func WPM(words int, minutes float64) int {
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / minutes))
}

// Accuracy penalizes every mistake ever made against the final input length:
// round(inputLen / (inputLen + mistakes) * 100), or 100 when nothing was typed.
func Accuracy(inputLen, mistakes int) int {
	total := inputLen + mistakes
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(total-mistakes) / float64(total) * 100))
}

// Compute derives WPM and accuracy for input typed between start and end.
func Compute(input string, mistakes int, start, end time.Time) Metrics {
	minutes := ElapsedMinutes(start, end)
	words := WordsTyped(input)
	return Metrics{
		WPM:            WPM(words, minutes),
		Accuracy:       Accuracy(utf8.RuneCountInString(input), mistakes),
		Words:          words,
		ElapsedSeconds: minutes * 60,
	}
}
