package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/pkg/config"
)

var testNow = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

// fixedSource always draws the same index
type fixedSource struct{ n int }

func (f fixedSource) Intn(n int) int {
	if f.n >= n {
		return n - 1
	}
	return f.n
}

// stubLoader serves a prebuilt series or a fixed error
type stubLoader struct {
	series *series.Series
	err    error
	calls  int
}

func (l *stubLoader) Load(ctx context.Context, symbol string) (*series.Series, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.series, nil
}

// seriesEndingAt builds consecutive daily points with the given closes,
// the last point landing on end.
func seriesEndingAt(end time.Time, closes []float64) *series.Series {
	points := make([]series.Point, len(closes))
	for i, c := range closes {
		points[i] = series.Point{
			Date:  end.AddDate(0, 0, i-len(closes)+1),
			Close: c,
		}
	}
	return series.New("TEST", points)
}

func rules(minPrior, window int) config.GameConfig {
	return config.GameConfig{
		LookbackMinDays: 7,
		LookbackMaxDays: 100,
		MinPriorDays:    minPrior,
		WindowSize:      window,
		MaxPickRetries:  5,
	}
}

func newTestSession(s *series.Series, src series.Source, r config.GameConfig) *Session {
	picker := series.NewPicker(src, r.LookbackMinDays, r.LookbackMaxDays)
	return NewSession(&stubLoader{series: s}, picker, r).WithNow(func() time.Time { return testNow })
}

func TestStartEmitsInitialWindow(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	// 20 points ending the day before now: positions 0..13 are eligible
	s := seriesEndingAt(testNow.AddDate(0, 0, -1), closes)

	sess := newTestSession(s, fixedSource{n: 7}, rules(7, 7))

	result, err := sess.Start(context.Background(), "TEST")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if result.Status != "loaded" {
		t.Errorf("status = %s, want loaded", result.Status)
	}
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}

	// 7 prior points through the start day inclusive
	if len(result.Window) != 8 {
		t.Fatalf("initial window has %d points, want 8", len(result.Window))
	}
	for i := 1; i < len(result.Window); i++ {
		if !result.Window[i-1].Date.Before(result.Window[i].Date) {
			t.Error("window is not ordered ascending by date")
		}
	}

	startIdx, ok := s.IndexOf(result.Window[len(result.Window)-1].Date)
	if !ok || startIdx < 7 {
		t.Errorf("start index = %d, want >= 7", startIdx)
	}
}

func TestStartInsufficientHistory(t *testing.T) {
	// Every eligible date sits before the 7th point, so no draw can seed
	// a full prior window
	s := seriesEndingAt(testNow.AddDate(0, 0, -8), []float64{10, 11, 12, 13, 14})

	sess := newTestSession(s, fixedSource{n: 0}, rules(7, 7))

	_, err := sess.Start(context.Background(), "TEST")
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("Start() error = %v, want ErrInsufficientHistory", err)
	}
	if sess.Status() != StatusError {
		t.Errorf("status = %s, want error", sess.Status())
	}
}

func TestStartNoCandidate(t *testing.T) {
	// All dates are more recent than now-7
	s := seriesEndingAt(testNow, []float64{10, 11, 12})

	sess := newTestSession(s, fixedSource{n: 0}, rules(7, 7))

	_, err := sess.Start(context.Background(), "TEST")
	if !errors.Is(err, series.ErrNoCandidate) {
		t.Fatalf("Start() error = %v, want ErrNoCandidate", err)
	}
}

func TestStartLoadFailure(t *testing.T) {
	loader := &stubLoader{err: &series.DataError{Kind: series.DataNotFound, Symbol: "NOPE"}}
	picker := series.NewPicker(fixedSource{n: 0}, 7, 100)
	sess := NewSession(loader, picker, rules(7, 7))

	_, err := sess.Start(context.Background(), "NOPE")
	if !series.IsNotFound(err) {
		t.Fatalf("Start() error = %v, want a not_found DataError", err)
	}
	if sess.Status() != StatusError {
		t.Errorf("status = %s, want error", sess.Status())
	}

	// Error is terminal for guesses until a new Start
	result := sess.Guess(Up)
	if result.Applied {
		t.Error("Guess() after failed Start must be a no-op")
	}
}

func TestGuessScoring(t *testing.T) {
	// Closes 10, 12, 11, 15; the game starts at index 1 (close 12)
	closes := []float64{10, 12, 11, 15}

	tests := []struct {
		name        string
		direction   Direction
		wantCorrect bool
		wantScore   int
	}{
		{"up against a drop is wrong", Up, false, 0},
		{"down against a drop is correct", Down, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seriesEndingAt(testNow.AddDate(0, 0, -7), closes)
			sess := newTestSession(s, fixedSource{n: 1}, rules(1, 1))

			if _, err := sess.Start(context.Background(), "TEST"); err != nil {
				t.Fatalf("Start() failed: %v", err)
			}

			result := sess.Guess(tt.direction)
			if !result.Applied {
				t.Fatal("Guess() was not applied")
			}
			if result.Correct != tt.wantCorrect {
				t.Errorf("correct = %v, want %v", result.Correct, tt.wantCorrect)
			}
			if result.Score != tt.wantScore {
				t.Errorf("score = %d, want %d", result.Score, tt.wantScore)
			}

			wantMsg := MsgWrong
			if tt.wantCorrect {
				wantMsg = MsgCorrect
			}
			if result.Message != wantMsg {
				t.Errorf("message = %q, want %q", result.Message, wantMsg)
			}

			// The reveal advanced to the guessed day
			last := result.Window[len(result.Window)-1]
			if last.Close != 11 {
				t.Errorf("window now ends at close %v, want 11", last.Close)
			}
		})
	}
}

func TestGuessFlatClose(t *testing.T) {
	// An unchanged close is "not up": Down scores, Up does not
	tests := []struct {
		name        string
		direction   Direction
		wantCorrect bool
	}{
		{"down on a flat day is correct", Down, true},
		{"up on a flat day is wrong", Up, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seriesEndingAt(testNow.AddDate(0, 0, -7), []float64{10, 10})
			sess := newTestSession(s, fixedSource{n: 0}, rules(0, 1))

			if _, err := sess.Start(context.Background(), "TEST"); err != nil {
				t.Fatalf("Start() failed: %v", err)
			}

			result := sess.Guess(tt.direction)
			if result.Correct != tt.wantCorrect {
				t.Errorf("correct = %v, want %v", result.Correct, tt.wantCorrect)
			}
		})
	}
}

func TestGuessExhaustion(t *testing.T) {
	closes := []float64{10, 12, 11, 15}
	s := seriesEndingAt(testNow.AddDate(0, 0, -7), closes)
	// Start on the last point so the very first guess runs off the end
	sess := newTestSession(s, fixedSource{n: 3}, rules(1, 1))

	if _, err := sess.Start(context.Background(), "TEST"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	first := sess.Guess(Up)
	if first.Status != "exhausted" {
		t.Fatalf("status = %s, want exhausted", first.Status)
	}
	if first.Message != MsgGameOver {
		t.Errorf("message = %q, want %q", first.Message, MsgGameOver)
	}
	if first.Score != 0 || first.Applied {
		t.Error("exhaustion must not change the score")
	}

	// Repeated guesses are idempotent
	for i := 0; i < 3; i++ {
		again := sess.Guess(Down)
		if again.Status != "exhausted" || again.Score != 0 || again.Message != MsgGameOver {
			t.Errorf("repeated guess after exhaustion changed state: %+v", again)
		}
	}
}

func TestGuessBeforeStart(t *testing.T) {
	picker := series.NewPicker(fixedSource{n: 0}, 7, 100)
	sess := NewSession(&stubLoader{}, picker, rules(7, 7))

	result := sess.Guess(Up)
	if result.Applied {
		t.Error("Guess() before Start must be a no-op")
	}
	if result.Status != "idle" {
		t.Errorf("status = %s, want idle", result.Status)
	}
}

func TestReplayDeterminism(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64((i*7)%13) - float64(i%5)
	}
	guesses := []Direction{Up, Down, Down, Up, Up, Down, Up, Down, Down, Up}

	play := func() (int, time.Time) {
		s := seriesEndingAt(testNow.AddDate(0, 0, -1), closes)
		picker := series.NewPicker(series.NewRandSource(99), 7, 100)
		r := rules(7, 7)
		r.MaxPickRetries = 50
		sess := NewSession(&stubLoader{series: s}, picker, r).
			WithNow(func() time.Time { return testNow })

		start, err := sess.Start(context.Background(), "TEST")
		if err != nil {
			t.Fatalf("Start() failed: %v", err)
		}
		for _, d := range guesses {
			sess.Guess(d)
		}
		return sess.Score(), start.Window[len(start.Window)-1].Date
	}

	score1, start1 := play()
	score2, start2 := play()

	if score1 != score2 {
		t.Errorf("replay produced different scores: %d vs %d", score1, score2)
	}
	if !start1.Equal(start2) {
		t.Errorf("replay produced different start dates: %v vs %v", start1, start2)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input   string
		want    Direction
		wantErr bool
	}{
		{"up", Up, false},
		{"UP", Up, false},
		{"down", Down, false},
		{"Down", Down, false},
		{"sideways", Up, true},
		{"", Up, true},
	}

	for _, tt := range tests {
		got, err := ParseDirection(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseDirection(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
