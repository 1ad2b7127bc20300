package trade

import "time"

const tradeDateLayout = "2006-01-02"

// EffectiveToday returns the reference date used by the future-trade check:
// now's calendar date, rolled back to the preceding Friday when it falls on
// a weekend.
func EffectiveToday(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, -1)
	case time.Sunday:
		d = d.AddDate(0, 0, -2)
	}
	return d
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ParseTradeDate parses a YYYY-MM-DD form value into a UTC date.
func ParseTradeDate(s string) (time.Time, error) {
	d, err := time.Parse(tradeDateLayout, s)
	if err != nil {
		return time.Time{}, ErrMalformedDate
	}
	return d, nil
}
