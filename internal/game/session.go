package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/pkg/config"
)

// Direction is the player's guess for the next close
type Direction int

const (
	Up Direction = iota
	Down
)

// String returns the wire form of the direction
func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseDirection parses the wire form of a direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "Up", "UP":
		return Up, nil
	case "down", "Down", "DOWN":
		return Down, nil
	default:
		return Up, fmt.Errorf("invalid direction %q (valid: up, down)", s)
	}
}

// Status is the session lifecycle state
type Status int

const (
	StatusIdle Status = iota
	StatusLoaded
	StatusExhausted
	StatusError
)

// String returns the wire form of the status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoaded:
		return "loaded"
	case StatusExhausted:
		return "exhausted"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome strings shown to the player
const (
	MsgCorrect  = "Correct!"
	MsgWrong    = "Wrong."
	MsgGameOver = "No more data. Game over."
)

// ErrInsufficientHistory means no admissible start date had enough prior
// trading days to seed the chart window.
var ErrInsufficientHistory = errors.New("insufficient history before eligible start dates")

// SeriesLoader fetches a validated series for a symbol. It is the only
// asynchronous boundary of the engine.
type SeriesLoader interface {
	Load(ctx context.Context, symbol string) (*series.Series, error)
}

// Result is what a session emits after Start or Guess: a full replacement
// reveal window plus the outcome of the operation. Renderers must treat
// Window as a replacement, never a delta.
type Result struct {
	Symbol  string         `json:"symbol"`
	Window  []series.Point `json:"window"`
	Message string         `json:"message,omitempty"`
	Correct bool           `json:"correct"`
	Applied bool           `json:"applied"` // false when the guess was a no-op
	Score   int            `json:"score"`
	Status  string         `json:"status"`
}

// Session owns the mutable play state of one reveal/guess game.
//
// Operations are sequential: the session itself takes no locks, callers
// that run it from multiple goroutines must serialize (see Manager).
// ⭐ SSOT: 게임 상태 전이는 이 타입에서만 일어남
type Session struct {
	loader SeriesLoader
	picker *series.Picker
	rules  config.GameConfig
	now    func() time.Time

	series       *series.Series
	startIndex   int
	currentIndex int
	score        int
	status       Status
}

// NewSession creates an idle session
func NewSession(loader SeriesLoader, picker *series.Picker, rules config.GameConfig) *Session {
	return &Session{
		loader: loader,
		picker: picker,
		rules:  rules,
		now:    time.Now,
		status: StatusIdle,
	}
}

// WithNow overrides the session clock. Test hook.
func (s *Session) WithNow(now func() time.Time) *Session {
	s.now = now
	return s
}

// Start loads the symbol's series, draws an admissible start date and
// emits the initial reveal window (the prior trading days up to and
// including the start day).
//
// Any failure leaves the session in StatusError; a new Start is the only
// recovery path.
func (s *Session) Start(ctx context.Context, symbol string) (*Result, error) {
	// A restart discards the previous game wholesale
	s.reset()

	loaded, err := s.loader.Load(ctx, symbol)
	if err != nil {
		s.status = StatusError
		return nil, fmt.Errorf("load series for %s: %w", symbol, err)
	}

	startIndex, err := s.pickStart(loaded)
	if err != nil {
		s.status = StatusError
		return nil, err
	}

	s.series = loaded
	s.startIndex = startIndex
	s.currentIndex = startIndex
	s.score = 0
	s.status = StatusLoaded

	return s.snapshot("", false, false), nil
}

// pickStart draws start dates until one has enough prior trading days,
// failing with ErrInsufficientHistory when the draws run out.
func (s *Session) pickStart(loaded *series.Series) (int, error) {
	retries := s.rules.MaxPickRetries
	if retries < 1 {
		retries = 1
	}

	for attempt := 0; attempt < retries; attempt++ {
		date, err := s.picker.Pick(loaded, s.now())
		if err != nil {
			// No candidate at all: surfaced as-is so the caller can report
			// "insufficient history" rather than silently defaulting
			return 0, err
		}

		index, ok := loaded.IndexOf(date)
		if !ok {
			return 0, fmt.Errorf("picked date %s is not in series", date.Format("2006-01-02"))
		}
		if index >= s.rules.MinPriorDays {
			return index, nil
		}
	}

	return 0, ErrInsufficientHistory
}

// Guess scores the player's call on the next trading day and advances the
// reveal by one. Outside StatusLoaded the call is a defensive no-op;
// running off the end of the series is the normal Exhausted terminal, not
// an error. Never blocks, never fails.
func (s *Session) Guess(direction Direction) *Result {
	switch s.status {
	case StatusExhausted:
		// Terminal and idempotent
		return s.snapshot(MsgGameOver, false, false)
	case StatusLoaded:
		// proceed
	default:
		return &Result{Status: s.status.String()}
	}

	nextIndex := s.currentIndex + 1
	if nextIndex >= s.series.Len() {
		s.status = StatusExhausted
		return s.snapshot(MsgGameOver, false, false)
	}

	// A flat close counts as "not up", so guessing Down on a flat day scores
	wentUp := s.series.At(nextIndex).Close > s.series.At(s.currentIndex).Close
	correct := (direction == Up) == wentUp
	if correct {
		s.score++
	}
	s.currentIndex = nextIndex

	msg := MsgWrong
	if correct {
		msg = MsgCorrect
	}
	return s.snapshot(msg, correct, true)
}

// State returns the current reveal window and score without advancing
func (s *Session) State() *Result {
	return s.snapshot("", false, false)
}

// Score returns the cumulative correct-guess count
func (s *Session) Score() int {
	return s.score
}

// Status returns the session lifecycle state
func (s *Session) Status() Status {
	return s.status
}

// reset returns the session to Idle, discarding any previous game
func (s *Session) reset() {
	s.series = nil
	s.startIndex = 0
	s.currentIndex = 0
	s.score = 0
	s.status = StatusIdle
}

// snapshot emits the full replacement reveal window for the current index
func (s *Session) snapshot(msg string, correct, applied bool) *Result {
	r := &Result{
		Message: msg,
		Correct: correct,
		Applied: applied,
		Score:   s.score,
		Status:  s.status.String(),
	}
	if s.series != nil {
		r.Symbol = s.series.Symbol()
		r.Window = s.series.Window(s.currentIndex-s.rules.WindowSize, s.currentIndex)
	}
	return r
}
