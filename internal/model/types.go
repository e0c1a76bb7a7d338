// Package model defines shared data structures.
package model

import (
	"time"
)

// Config defines practice settings.
type Config struct {
	Mode         Mode
	WordListPath string
}

// StatsConfig defines filters and options for history queries and stats output.
type StatsConfig struct {
	Category    Category
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Result is the immutable outcome of a finished session.
type Result struct {
	ID             string
	CompletedAt    time.Time
	WPM            int
	Accuracy       int
	ElapsedSeconds float64
	TextLength     int
	MistakeCount   int
	Text           string
	Mode           Mode
	Author         string
}

// Record is the persisted and exported shape of a Result.
type Record struct {
	ID          string  `json:"id"`
	Date        int64   `json:"date"`
	WPM         int     `json:"wpm"`
	Accuracy    int     `json:"accuracy"`
	TimeElapsed float64 `json:"timeElapsed"`
	TextLength  int     `json:"textLength"`
	ErrorCount  int     `json:"errorCount"`
	Text        string  `json:"text"`
	Mode        string  `json:"mode"`
	Author      string  `json:"author,omitempty"`
}

// Aggregate summarizes a collection of results.
type Aggregate struct {
	Count       int `json:"count"`
	AvgWPM      int `json:"avgWpm"`
	MaxWPM      int `json:"maxWpm"`
	MinWPM      int `json:"minWpm"`
	AvgAccuracy int `json:"avgAccuracy"`
	MaxAccuracy int `json:"maxAccuracy"`
}

// ToRecord converts a result into its persisted shape.
func (r Result) ToRecord() Record {
	return Record{
		ID:          r.ID,
		Date:        r.CompletedAt.UnixMilli(),
		WPM:         r.WPM,
		Accuracy:    r.Accuracy,
		TimeElapsed: r.ElapsedSeconds,
		TextLength:  r.TextLength,
		ErrorCount:  r.MistakeCount,
		Text:        r.Text,
		Mode:        r.Mode.ID(),
		Author:      r.Author,
	}
}

// ToResult converts a persisted record back into a Result.
func (rec Record) ToResult() (Result, error) {
	mode, err := ParseMode(rec.Mode)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ID:             rec.ID,
		CompletedAt:    time.UnixMilli(rec.Date),
		WPM:            rec.WPM,
		Accuracy:       rec.Accuracy,
		ElapsedSeconds: rec.TimeElapsed,
		TextLength:     rec.TextLength,
		MistakeCount:   rec.ErrorCount,
		Text:           rec.Text,
		Mode:           mode,
		Author:         rec.Author,
	}, nil
}
