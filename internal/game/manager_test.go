package game

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testManager(closes []float64, src fixedSource) *Manager {
	s := seriesEndingAt(testNow.AddDate(0, 0, -7), closes)
	r := rules(1, 1)
	return NewManager(func() *Session {
		return newTestSession(s, src, r).WithNow(func() time.Time { return testNow })
	})
}

func TestManagerStartAndGuess(t *testing.T) {
	m := testManager([]float64{10, 12, 11, 15}, fixedSource{n: 1})

	start, err := m.Start(context.Background(), "player-1", "TEST")
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if start.Status != "loaded" {
		t.Errorf("status = %s, want loaded", start.Status)
	}

	result, err := m.Guess("player-1", Down)
	if err != nil {
		t.Fatalf("Guess() failed: %v", err)
	}
	if !result.Correct || result.Score != 1 {
		t.Errorf("Guess(Down) = correct=%v score=%d, want correct=true score=1", result.Correct, result.Score)
	}

	state, err := m.State("player-1")
	if err != nil {
		t.Fatalf("State() failed: %v", err)
	}
	if state.Score != 1 {
		t.Errorf("State().Score = %d, want 1", state.Score)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	m := testManager([]float64{10, 12}, fixedSource{n: 0})

	if _, err := m.Guess("nobody", Up); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Guess() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := m.State("nobody"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("State() error = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerDrop(t *testing.T) {
	m := testManager([]float64{10, 12, 11, 15}, fixedSource{n: 1})

	if _, err := m.Start(context.Background(), "player-1", "TEST"); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	m.Drop("player-1")

	if _, err := m.State("player-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("State() after Drop error = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	m := testManager([]float64{10, 12, 11, 15}, fixedSource{n: 1})

	if _, err := m.Start(context.Background(), "a", "TEST"); err != nil {
		t.Fatalf("Start(a) failed: %v", err)
	}
	if _, err := m.Start(context.Background(), "b", "TEST"); err != nil {
		t.Fatalf("Start(b) failed: %v", err)
	}

	if _, err := m.Guess("a", Down); err != nil {
		t.Fatalf("Guess(a) failed: %v", err)
	}

	stateB, err := m.State("b")
	if err != nil {
		t.Fatalf("State(b) failed: %v", err)
	}
	if stateB.Score != 0 {
		t.Errorf("session b score = %d, want 0 after a's guess", stateB.Score)
	}
}
