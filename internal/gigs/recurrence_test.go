package gigs

import (
	"testing"
	"time"
)

func TestSeriesDates(t *testing.T) {
	t.Run("zero or negative count yields nothing", func(t *testing.T) {
		seed := time.Date(2100, 1, 10, 20, 0, 0, 0, time.UTC)
		if got := SeriesDates(seed, 0, PeriodWeek); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
		if got := SeriesDates(seed, -3, PeriodDay); got != nil {
			t.Fatalf("expected nil, got %v", got)
		}
	})

	t.Run("seed is always the first date", func(t *testing.T) {
		seed := time.Date(2100, 1, 10, 20, 0, 0, 0, time.UTC)
		got := SeriesDates(seed, 1, PeriodMonth)
		if len(got) != 1 || !got[0].Equal(seed) {
			t.Fatalf("expected [seed], got %v", got)
		}
	})

	t.Run("daily adds one day per instance", func(t *testing.T) {
		seed := time.Date(2100, 1, 10, 20, 0, 0, 0, time.UTC)
		got := SeriesDates(seed, 3, PeriodDay)
		if len(got) != 3 {
			t.Fatalf("expected 3 dates, got %v", got)
		}
		if !got[2].Equal(seed.AddDate(0, 0, 2)) {
			t.Fatalf("expected %v, got %v", seed.AddDate(0, 0, 2), got[2])
		}
	})

	t.Run("weekly adds seven days per instance", func(t *testing.T) {
		seed := time.Date(2100, 1, 10, 20, 0, 0, 0, time.UTC)
		got := SeriesDates(seed, 4, PeriodWeek)
		if !got[3].Equal(seed.AddDate(0, 0, 21)) {
			t.Fatalf("expected %v, got %v", seed.AddDate(0, 0, 21), got[3])
		}
	})

	t.Run("monthly clamps to short months and recovers", func(t *testing.T) {
		seed := time.Date(2100, 1, 31, 20, 0, 0, 0, time.UTC)
		got := SeriesDates(seed, 3, PeriodMonth)
		want := []time.Time{
			seed,
			time.Date(2100, 2, 28, 20, 0, 0, 0, time.UTC),
			time.Date(2100, 3, 31, 20, 0, 0, 0, time.UTC),
		}
		for i := range want {
			if !got[i].Equal(want[i]) {
				t.Fatalf("position %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	})

	t.Run("monthly wraps the year boundary", func(t *testing.T) {
		seed := time.Date(2100, 12, 15, 19, 30, 0, 0, time.UTC)
		got := SeriesDates(seed, 2, PeriodMonth)
		want := time.Date(2101, 1, 15, 19, 30, 0, 0, time.UTC)
		if !got[1].Equal(want) {
			t.Fatalf("expected %v, got %v", want, got[1])
		}
	})

	t.Run("unknown period falls back to monthly", func(t *testing.T) {
		seed := time.Date(2100, 5, 10, 20, 0, 0, 0, time.UTC)
		got := SeriesDates(seed, 2, "fortnight")
		want := time.Date(2100, 6, 10, 20, 0, 0, 0, time.UTC)
		if !got[1].Equal(want) {
			t.Fatalf("expected %v, got %v", want, got[1])
		}
	})

	t.Run("clock and zone are preserved", func(t *testing.T) {
		loc := time.FixedZone("CET", 3600)
		seed := time.Date(2100, 3, 31, 21, 15, 0, 0, loc)
		got := SeriesDates(seed, 2, PeriodMonth)
		if got[1].Hour() != 21 || got[1].Minute() != 15 || got[1].Location() != loc {
			t.Fatalf("clock or zone lost: %v", got[1])
		}
		if got[1].Day() != 30 {
			t.Fatalf("expected clamp to Apr 30, got %v", got[1])
		}
	})
}

func TestSeriesOffsets(t *testing.T) {
	date := time.Date(2100, 1, 10, 20, 0, 0, 0, time.UTC)
	set := date.Add(90 * time.Minute)
	end := date.Add(4 * time.Hour)

	t.Run("offsets reapply relative to each instance", func(t *testing.T) {
		o := offsetsFromSeed(date, &set, &end)
		next := date.AddDate(0, 1, 0)
		gotSet, gotEnd := o.apply(next)
		if gotSet == nil || !gotSet.Equal(next.Add(90*time.Minute)) {
			t.Fatalf("unexpected set time: %v", gotSet)
		}
		if gotEnd == nil || !gotEnd.Equal(next.Add(4*time.Hour)) {
			t.Fatalf("unexpected end time: %v", gotEnd)
		}
	})

	t.Run("absent times stay absent", func(t *testing.T) {
		o := offsetsFromSeed(date, nil, nil)
		gotSet, gotEnd := o.apply(date.AddDate(0, 0, 7))
		if gotSet != nil || gotEnd != nil {
			t.Fatalf("expected nil offsets, got %v %v", gotSet, gotEnd)
		}
	})
}
