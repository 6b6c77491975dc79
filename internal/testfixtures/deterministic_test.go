package testfixtures

import (
	"testing"
	"time"
)

func TestClock(t *testing.T) {
	t.Run("defaults to the reference time", func(t *testing.T) {
		clock := NewClock(time.Time{})
		if !clock.Now().Equal(ReferenceTime()) {
			t.Fatalf("expected ReferenceTime, got %v", clock.Now())
		}
	})

	t.Run("advance and set move the shared instant", func(t *testing.T) {
		start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
		clock := NewClock(start)
		nowFn := clock.NowFunc()

		if got := clock.Advance(90 * time.Minute); !got.Equal(start.Add(90 * time.Minute)) {
			t.Fatalf("advance returned %v", got)
		}
		clock.Set(start.Add(2 * time.Hour))
		if got := nowFn(); !got.Equal(start.Add(2 * time.Hour)) {
			t.Fatalf("expected NowFunc to observe Set, got %v", got)
		}
	})

	t.Run("today anchors to the current day", func(t *testing.T) {
		clock := NewClock(time.Date(2024, time.March, 14, 17, 45, 0, 0, time.UTC))
		want := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
		if got := clock.Today(9, 0); !got.Equal(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})
}

func TestIDGenerator(t *testing.T) {
	gen := NewIDGenerator("booking")
	if first, second := gen.Next(), gen.Next(); first != "booking-1" || second != "booking-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}

	gen.Reset()
	if next := gen.NextFunc()(); next != "booking-1" {
		t.Fatalf("expected booking-1 after reset, got %q", next)
	}

	if got := NewIDGenerator("").Next(); got != "id-1" {
		t.Fatalf("expected default prefix, got %q", got)
	}
}
