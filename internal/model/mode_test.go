package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseModeRoundTrip(t *testing.T) {
	for _, info := range Catalog {
		mode, err := ParseMode(info.ID)
		if err != nil {
			t.Fatalf("parse %q: %v", info.ID, err)
		}
		if mode != info.Mode {
			t.Fatalf("expected %v, got %v", info.Mode, mode)
		}
		if mode.ID() != info.ID {
			t.Fatalf("expected id %q, got %q", info.ID, mode.ID())
		}
		if mode.Category() != info.Category {
			t.Fatalf("expected category %q for %q, got %q", info.Category, info.ID, mode.Category())
		}
	}
	if len(Catalog) != 7 {
		t.Fatalf("expected 7 modes, got %d", len(Catalog))
	}
}

func TestParseModeUnknown(t *testing.T) {
	if _, err := ParseMode("45"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestModeAccessors(t *testing.T) {
	if n, ok := WordCount(60).Words(); !ok || n != 60 {
		t.Fatalf("unexpected words: %d %v", n, ok)
	}
	if _, ok := WordCount(60).Seconds(); ok {
		t.Fatalf("word mode must not report seconds")
	}
	if s, ok := TimeLimit(30).Seconds(); !ok || s != 30 {
		t.Fatalf("unexpected seconds: %d %v", s, ok)
	}
	if TimeLimit(15).Label() != "15" {
		t.Fatalf("unexpected label %q", TimeLimit(15).Label())
	}
	if DefaultMode(CategoryTime) != TimeLimit(15) || DefaultMode(CategoryWords) != WordCount(30) || DefaultMode(CategoryQuote) != Quote() {
		t.Fatalf("unexpected category defaults")
	}
	if got := ModesFor(CategoryTime); len(got) != 3 {
		t.Fatalf("expected 3 time modes, got %v", got)
	}
}

func TestRecordConversion(t *testing.T) {
	completed := time.UnixMilli(1700000000123)
	res := Result{
		ID:             "abc",
		CompletedAt:    completed,
		WPM:            50,
		Accuracy:       94,
		ElapsedSeconds: 30.5,
		TextLength:     47,
		MistakeCount:   3,
		Text:           "the quick",
		Mode:           Quote(),
		Author:         "Someone",
	}
	rec := res.ToRecord()
	if rec.Date != 1700000000123 || rec.Mode != "quote" || rec.ErrorCount != 3 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	back, err := rec.ToResult()
	if err != nil {
		t.Fatalf("to result: %v", err)
	}
	if !back.CompletedAt.Equal(completed) || back.Mode != Quote() || back.Author != "Someone" {
		t.Fatalf("unexpected result: %+v", back)
	}
}
