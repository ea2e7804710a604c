package series

import (
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name      string
		payload   *RawPayload
		wantKind  DataErrorKind
		wantErr   bool
		wantCount int
	}{
		{
			name: "valid payload",
			payload: &RawPayload{
				HasMeta:  true,
				TimeZone: "US/Eastern",
				Rows: map[string]RawRow{
					"2024-01-15": {Close: "182.50"},
					"2024-01-16": {Close: "183.10"},
					"2024-01-17": {Close: "181.90"},
				},
			},
			wantCount: 3,
		},
		{
			name:     "unknown ticker",
			payload:  &RawPayload{ErrorMessage: "Invalid API call."},
			wantErr:  true,
			wantKind: DataNotFound,
		},
		{
			name:     "throttled",
			payload:  &RawPayload{Note: "Thank you for using our API. Please wait a minute."},
			wantErr:  true,
			wantKind: DataRateLimited,
		},
		{
			name:     "neither metadata nor rows",
			payload:  &RawPayload{},
			wantErr:  true,
			wantKind: DataMalformed,
		},
		{
			name:     "nil payload",
			payload:  nil,
			wantErr:  true,
			wantKind: DataMalformed,
		},
		{
			name: "non-finite closes dropped",
			payload: &RawPayload{
				HasMeta: true,
				Rows: map[string]RawRow{
					"2024-01-15": {Close: "182.50"},
					"2024-01-16": {Close: "NaN"},
					"2024-01-17": {Close: "+Inf"},
					"2024-01-18": {Close: "not-a-number"},
					"2024-01-19": {Close: ""},
					"2024-01-22": {Close: "184.00"},
				},
			},
			wantCount: 2,
		},
		{
			name: "bad date keys dropped",
			payload: &RawPayload{
				HasMeta: true,
				Rows: map[string]RawRow{
					"2024-01-15":  {Close: "182.50"},
					"15/01/2024":  {Close: "182.50"},
					"yesterday??": {Close: "182.50"},
				},
			},
			wantCount: 1,
		},
		{
			name: "empty series is valid",
			payload: &RawPayload{
				HasMeta: true,
				Rows:    map[string]RawRow{},
			},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build("TEST", tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Build() expected error, got nil")
				}
				var de *DataError
				if !errors.As(err, &de) {
					t.Fatalf("Build() error is not a DataError: %v", err)
				}
				if de.Kind != tt.wantKind {
					t.Errorf("Build() error kind = %s, want %s", de.Kind, tt.wantKind)
				}
				return
			}

			if err != nil {
				t.Fatalf("Build() failed: %v", err)
			}
			if s.Len() != tt.wantCount {
				t.Errorf("Build() got %d points, want %d", s.Len(), tt.wantCount)
			}

			// Strictly ascending with no duplicate dates
			for i := 1; i < s.Len(); i++ {
				if !s.At(i - 1).Date.Before(s.At(i).Date) {
					t.Errorf("points not strictly ascending at %d: %v !< %v",
						i, s.At(i-1).Date, s.At(i).Date)
				}
			}

			// Index resolves every point back to its position
			for i := 0; i < s.Len(); i++ {
				pos, ok := s.IndexOf(s.At(i).Date)
				if !ok || pos != i {
					t.Errorf("IndexOf(%v) = (%d, %v), want (%d, true)", s.At(i).Date, pos, ok, i)
				}
			}
		})
	}
}

func TestNewDeduplicatesAndSorts(t *testing.T) {
	points := []Point{
		{Date: day("2024-01-17"), Close: 3},
		{Date: day("2024-01-15"), Close: 1},
		{Date: day("2024-01-15"), Close: 1.5}, // duplicate date, later value wins
		{Date: day("2024-01-16"), Close: 2},
	}

	s := New("TEST", points)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	if s.At(0).Close != 1.5 {
		t.Errorf("duplicate date: At(0).Close = %v, want 1.5", s.At(0).Close)
	}
	if !s.At(0).Date.Equal(day("2024-01-15")) || !s.At(2).Date.Equal(day("2024-01-17")) {
		t.Error("points are not sorted ascending by date")
	}
}

func TestWindow(t *testing.T) {
	s := New("TEST", []Point{
		{Date: day("2024-01-15"), Close: 1},
		{Date: day("2024-01-16"), Close: 2},
		{Date: day("2024-01-17"), Close: 3},
	})

	tests := []struct {
		name     string
		from, to int
		want     int
	}{
		{"full range", 0, 2, 3},
		{"clamped low", -5, 1, 2},
		{"clamped high", 1, 99, 2},
		{"inverted", 2, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Window(tt.from, tt.to); len(got) != tt.want {
				t.Errorf("Window(%d, %d) returned %d points, want %d", tt.from, tt.to, len(got), tt.want)
			}
		})
	}

	// The returned window must not alias the series
	w := s.Window(0, 2)
	w[0].Close = 999
	if s.At(0).Close == 999 {
		t.Error("Window() aliases the series backing array")
	}
}

func TestPositionsBetween(t *testing.T) {
	s := New("TEST", []Point{
		{Date: day("2024-01-10"), Close: 1},
		{Date: day("2024-01-15"), Close: 2},
		{Date: day("2024-01-20"), Close: 3},
		{Date: day("2024-01-25"), Close: 4},
	})

	got := s.PositionsBetween(day("2024-01-15"), day("2024-01-20"))
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("PositionsBetween() = %v, want [1 2]", got)
	}

	if got := s.PositionsBetween(day("2024-02-01"), day("2024-02-10")); len(got) != 0 {
		t.Errorf("PositionsBetween() outside range = %v, want empty", got)
	}
}
