// Package session implements the typing test state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/verte-zerg/keyrush/internal/generator"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/quote"
	"github.com/verte-zerg/keyrush/internal/stats"
)

const appendTimeout = 5 * time.Second

// ErrNoQuoteSource is reported in quote mode when the engine has no QuoteSource.
var ErrNoQuoteSource = errors.New("no quote source configured")

// WordSource produces space separated practice text.
type WordSource interface {
	Text(count int) string
}

// QuoteSource retrieves quotes for the quote mode.
type QuoteSource interface {
	Fetch(ctx context.Context) (quote.Quote, error)
}

// Recorder persists finished results.
type Recorder interface {
	Append(ctx context.Context, res model.Result) error
}

// Options configures an Engine. Words and Mode are required in practice;
// the rest fall back to sensible defaults.
type Options struct {
	Mode    model.Mode
	Clock   Clock
	Words   WordSource
	Quotes  QuoteSource
	History Recorder
	Logger  *slog.Logger
	// Notify receives events outside the engine lock. It must not block for long.
	Notify func(Event)
	NewID  func() string
}

type fetchToken struct {
	id   uint64
	mode model.Mode
}

type countdown struct {
	timer Timer
}

// Engine drives a single typing session at a time.
// All transitions are serialized by mu; timer and fetch callbacks enter through it too.
type Engine struct {
	mu sync.Mutex

	clock   Clock
	words   WordSource
	quotes  QuoteSource
	history Recorder
	logger  *slog.Logger
	notify  func(Event)
	newID   func() string

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	version   uint64
	mode      model.Mode
	state     State
	target    []rune
	input     []rune
	mistakes  int
	startedAt time.Time
	endedAt   time.Time
	remaining int
	author    string
	result    *model.Result

	countdown *countdown

	nextFetch  uint64
	inFlight   *fetchToken
	stash      *quote.Quote
	quoteErr   error
	quoteReady bool
}

// New builds an engine in the NotStarted state for opts.Mode.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Words == nil {
		opts.Words = generator.New(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Mode.IsZero() {
		opts.Mode = model.DefaultMode(model.CategoryTime)
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		clock:   opts.Clock,
		words:   opts.Words,
		quotes:  opts.Quotes,
		history: opts.History,
		logger:  opts.Logger,
		notify:  opts.Notify,
		newID:   opts.NewID,
		ctx:     ctx,
		cancel:  cancel,
		mode:    opts.Mode,
	}
	e.mu.Lock()
	fx := e.resetLocked()
	e.mu.Unlock()
	e.run(fx)
	return e
}

// effects are side effects collected under the lock and run after it is released.
type effects struct {
	events []Event
	record *model.Result
	fetch  *fetchToken
}

func (fx *effects) emit(kind EventKind, snap Snapshot) {
	fx.events = append(fx.events, Event{Kind: kind, Snapshot: snap})
}

func (e *Engine) run(fx effects) {
	if fx.record != nil && e.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := e.history.Append(ctx, *fx.record); err != nil {
			e.logger.Error("append result", "id", fx.record.ID, "err", err)
		}
		cancel()
	}
	if fx.fetch != nil {
		go e.fetchQuote(*fx.fetch)
	}
	if e.notify != nil {
		for _, ev := range fx.events {
			e.notify(ev)
		}
	}
}

// Snapshot returns the current state with live metrics computed against now.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Input replaces the typed text with next.
func (e *Engine) Input(next string) {
	e.mu.Lock()
	fx := e.inputLocked([]rune(next))
	e.mu.Unlock()
	e.run(fx)
}

// Type appends s to the current input.
func (e *Engine) Type(s string) {
	e.mu.Lock()
	next := make([]rune, 0, len(e.input)+utf8.RuneCountInString(s))
	next = append(next, e.input...)
	next = append(next, []rune(s)...)
	fx := e.inputLocked(next)
	e.mu.Unlock()
	e.run(fx)
}

// Backspace removes the last typed character.
func (e *Engine) Backspace() {
	e.mu.Lock()
	if len(e.input) == 0 {
		e.mu.Unlock()
		return
	}
	next := append([]rune(nil), e.input[:len(e.input)-1]...)
	fx := e.inputLocked(next)
	e.mu.Unlock()
	e.run(fx)
}

// Reset discards the current session and prepares a fresh one in the same mode.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	fx := e.resetLocked()
	e.mu.Unlock()
	e.run(fx)
}

// SetMode switches mode, discarding any progress.
func (e *Engine) SetMode(mode model.Mode) {
	if mode.IsZero() {
		panic("session: SetMode with zero mode")
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if mode != e.mode {
		e.inFlight = nil
		e.stash = nil
		e.quoteReady = false
		e.mode = mode
	}
	fx := e.resetLocked()
	e.mu.Unlock()
	e.run(fx)
}

// SetCategory selects the default mode of category.
func (e *Engine) SetCategory(category model.Category) {
	e.SetMode(model.DefaultMode(category))
}

// Mode returns the current mode.
func (e *Engine) Mode() model.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Close stops timers and drops pending quote fetches. It does not wait.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.stopCountdownLocked()
	e.inFlight = nil
	e.cancel()
}

func (e *Engine) inputLocked(next []rune) effects {
	var fx effects
	if e.closed || e.state == Finished || len(e.target) == 0 {
		return fx
	}
	if e.state == NotStarted {
		if len(next) == 0 {
			return fx
		}
		e.startLocked()
	}
	for i := len(e.input); i < len(next); i++ {
		if i >= len(e.target) || next[i] != e.target[i] {
			e.mistakes++
		}
	}
	e.input = next
	e.version++
	if _, timed := e.mode.Seconds(); !timed && len(e.input) >= len(e.target) {
		return e.finishLocked()
	}
	fx.emit(EventChanged, e.snapshotLocked())
	return fx
}

func (e *Engine) startLocked() {
	e.state = Active
	e.startedAt = e.clock.Now()
	if secs, ok := e.mode.Seconds(); ok {
		e.remaining = secs
		c := &countdown{}
		e.countdown = c
		c.timer = e.clock.AfterFunc(time.Second, func() { e.tick(c) })
	}
	e.logger.Debug("session started", "mode", e.mode.ID())
}

func (e *Engine) tick(c *countdown) {
	e.mu.Lock()
	if e.closed || e.countdown != c || e.state != Active {
		e.mu.Unlock()
		return
	}
	e.remaining--
	var fx effects
	if e.remaining <= 0 {
		e.remaining = 0
		fx = e.finishLocked()
	} else {
		c.timer = e.clock.AfterFunc(time.Second, func() { e.tick(c) })
		e.version++
		fx.emit(EventChanged, e.snapshotLocked())
	}
	e.mu.Unlock()
	e.run(fx)
}

func (e *Engine) stopCountdownLocked() {
	if e.countdown == nil {
		return
	}
	if e.countdown.timer != nil {
		e.countdown.timer.Stop()
	}
	e.countdown = nil
}

// finishLocked runs at most once per session: only an Active session can finish.
func (e *Engine) finishLocked() effects {
	var fx effects
	if e.state != Active {
		return fx
	}
	e.state = Finished
	e.endedAt = e.clock.Now()
	e.stopCountdownLocked()
	e.version++

	if len(e.input) > 0 {
		input := string(e.input)
		m := stats.Compute(input, e.mistakes, e.startedAt, e.endedAt)
		res := model.Result{
			ID:             e.newID(),
			CompletedAt:    e.endedAt,
			WPM:            m.WPM,
			Accuracy:       m.Accuracy,
			ElapsedSeconds: m.ElapsedSeconds,
			MistakeCount:   e.mistakes,
			Mode:           e.mode,
		}
		if _, timed := e.mode.Seconds(); timed {
			res.Text = input
			res.TextLength = len(e.input)
		} else {
			res.Text = string(e.target)
			res.TextLength = len(e.target)
		}
		if e.mode.Category() == model.CategoryQuote {
			res.Author = e.author
		}
		e.result = &res
		fx.record = &res
		e.logger.Info("session finished", "mode", e.mode.ID(), "wpm", res.WPM, "accuracy", res.Accuracy)
	} else {
		e.logger.Debug("empty session discarded", "mode", e.mode.ID())
	}

	if e.mode.Category() == model.CategoryQuote && e.inFlight == nil {
		fx.fetch = e.beginFetchLocked()
	}
	fx.emit(EventFinished, e.snapshotLocked())
	return fx
}

func (e *Engine) resetLocked() effects {
	var fx effects
	e.stopCountdownLocked()
	e.state = NotStarted
	e.input = nil
	e.mistakes = 0
	e.startedAt = time.Time{}
	e.endedAt = time.Time{}
	e.result = nil
	e.remaining = 0
	e.version++

	switch e.mode.Category() {
	case model.CategoryQuote:
		e.quoteErr = nil
		if e.stash != nil {
			q := *e.stash
			e.stash = nil
			e.loadQuote(q)
			break
		}
		// A loaded quote stays typeable until its replacement arrives.
		if !e.quoteReady {
			e.target = nil
			e.author = ""
		}
		if e.inFlight == nil {
			fx.fetch = e.beginFetchLocked()
		}
	case model.CategoryTime:
		e.author = ""
		e.target = []rune(e.words.Text(generator.TimePoolSize))
		e.remaining, _ = e.mode.Seconds()
	default:
		e.author = ""
		n, _ := e.mode.Words()
		e.target = []rune(e.words.Text(n))
	}
	fx.emit(EventChanged, e.snapshotLocked())
	return fx
}

func (e *Engine) beginFetchLocked() *fetchToken {
	if e.quotes == nil {
		e.quoteErr = ErrNoQuoteSource
		return nil
	}
	e.nextFetch++
	tok := &fetchToken{id: e.nextFetch, mode: e.mode}
	e.inFlight = tok
	return tok
}

func (e *Engine) fetchQuote(tok fetchToken) {
	q, err := e.quotes.Fetch(e.ctx)
	e.mu.Lock()
	fx := e.resolveFetchLocked(tok, q, err)
	e.mu.Unlock()
	e.run(fx)
}

// resolveFetchLocked applies a fetch result only when it is the current request,
// the engine is still in that mode, and no session is running.
func (e *Engine) resolveFetchLocked(tok fetchToken, q quote.Quote, err error) effects {
	var fx effects
	if e.closed || e.inFlight == nil || e.inFlight.id != tok.id || e.mode != tok.mode {
		e.logger.Debug("stale quote discarded", "fetch", tok.id)
		return fx
	}
	e.inFlight = nil
	switch e.state {
	case NotStarted:
		if err != nil {
			e.quoteErr = err
			e.logger.Warn("quote unavailable", "err", err)
		} else {
			e.loadQuote(q)
		}
		e.version++
		fx.emit(EventQuote, e.snapshotLocked())
	case Finished:
		if err == nil {
			e.stash = &q
		}
	}
	return fx
}

// loadQuote installs q as the target text. Only valid in quote mode.
func (e *Engine) loadQuote(q quote.Quote) {
	if e.mode.Category() != model.CategoryQuote {
		panic(fmt.Sprintf("session: quote loaded in %s mode", e.mode.ID()))
	}
	e.target = []rune(q.Text)
	e.author = q.Author
	e.quoteErr = nil
	e.quoteReady = true
}

func (e *Engine) snapshotLocked() Snapshot {
	end := e.endedAt
	if e.state != Finished {
		end = e.clock.Now()
	}
	input := string(e.input)
	m := stats.Compute(input, e.mistakes, e.startedAt, end)
	snap := Snapshot{
		Version:        e.version,
		State:          e.state,
		Mode:           e.mode,
		Target:         string(e.target),
		Input:          input,
		Mistakes:       e.mistakes,
		StartedAt:      e.startedAt,
		EndedAt:        e.endedAt,
		Remaining:      e.remaining,
		Author:         e.author,
		QuoteLoading:   e.mode.Category() == model.CategoryQuote && !e.quoteReady && e.inFlight != nil,
		QuoteErr:       e.quoteErr,
		WPM:            m.WPM,
		Accuracy:       m.Accuracy,
		ElapsedSeconds: m.ElapsedSeconds,
	}
	if e.result != nil {
		res := *e.result
		snap.Result = &res
	}
	return snap
}
