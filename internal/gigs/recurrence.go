package gigs

import "time"

// Period values for a gig series. Any value other than day or week is
// treated as monthly.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// SeriesDates returns the call dates of a recurring series, seed first,
// count instances in total. Daily and weekly cadences add fixed offsets;
// everything else advances one calendar month at a time, keeping the
// seed's day-of-month and clamping it to the target month's length
// (Jan 31 -> Feb 28, then back to Mar 31). Returns nil when count <= 0.
func SeriesDates(seed time.Time, count int, period string) []time.Time {
	if count <= 0 {
		return nil
	}

	dates := make([]time.Time, 0, count)
	dates = append(dates, seed)

	switch period {
	case PeriodDay:
		for i := 1; i < count; i++ {
			dates = append(dates, dates[i-1].AddDate(0, 0, 1))
		}
	case PeriodWeek:
		for i := 1; i < count; i++ {
			dates = append(dates, dates[i-1].AddDate(0, 0, 7))
		}
	default:
		dayOfMonth := seed.Day()
		year, month := seed.Year(), seed.Month()
		for i := 1; i < count; i++ {
			month++
			if month > time.December {
				month = time.January
				year++
			}
			day := dayOfMonth
			if last := lastDayOfMonth(year, month); day > last {
				day = last
			}
			dates = append(dates, time.Date(year, month, day,
				seed.Hour(), seed.Minute(), seed.Second(), seed.Nanosecond(), seed.Location()))
		}
	}
	return dates
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// seriesOffsets captures the seed's set/end times relative to its call
// time, computed once and reapplied to every generated instance.
type seriesOffsets struct {
	set *time.Duration
	end *time.Duration
}

func offsetsFromSeed(date time.Time, setDate, endDate *time.Time) seriesOffsets {
	var o seriesOffsets
	if setDate != nil {
		d := setDate.Sub(date)
		o.set = &d
	}
	if endDate != nil {
		d := endDate.Sub(date)
		o.end = &d
	}
	return o
}

func (o seriesOffsets) apply(date time.Time) (setDate, endDate *time.Time) {
	if o.set != nil {
		t := date.Add(*o.set)
		setDate = &t
	}
	if o.end != nil {
		t := date.Add(*o.end)
		endDate = &t
	}
	return setDate, endDate
}
