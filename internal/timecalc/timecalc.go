package timecalc

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Granularity is the size of a report window.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity maps a user-supplied string onto a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Day, Week, Month:
		return g, nil
	case "":
		return Day, nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want day, week or month)", s)
	}
}

// Direction moves a reference date backwards or forwards.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// ParseDirection accepts "prev", "previous" and "next".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prev", "previous":
		return Previous, nil
	case "next":
		return Next, nil
	default:
		return 0, fmt.Errorf("unknown direction %q (want prev or next)", s)
	}
}

// Window is an inclusive time interval [Start, End].
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the window, both bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// GenerateID creates a unique entry ID based on timestamp and random suffix.
func GenerateID(t time.Time) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 5)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		suffix[i] = chars[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", t.Format("20060102-150405"), string(suffix))
}

// StartOfDay returns 00:00:00.000 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// WeekRange returns the Sunday and Saturday of the week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	sunday := StartOfDay(t.AddDate(0, 0, -int(t.Weekday())))
	saturday := EndOfDay(sunday.AddDate(0, 0, 6))
	return sunday, saturday
}

// MonthRange returns the first and last calendar day of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	// Day 0 of the next month is the last day of this one.
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
	return first, EndOfDay(last)
}

// ComputeWindow returns the report window of granularity g containing ref.
func ComputeWindow(ref time.Time, g Granularity) Window {
	switch g {
	case Week:
		start, end := WeekRange(ref)
		return Window{Start: start, End: end}
	case Month:
		start, end := MonthRange(ref)
		return Window{Start: start, End: end}
	default:
		return Window{Start: StartOfDay(ref), End: EndOfDay(ref)}
	}
}

// Navigate shifts ref by one unit of g in direction dir.
// Month steps clamp the day to the last valid day of the target month.
func Navigate(ref time.Time, g Granularity, dir Direction) time.Time {
	switch g {
	case Week:
		return ref.AddDate(0, 0, 7*int(dir))
	case Month:
		return AddMonthsClamped(ref, int(dir))
	default:
		return ref.AddDate(0, 0, int(dir))
	}
}

// AddMonthsClamped adds n months to t without rolling over into the following
// month: Jan 31 + 1 month is the last day of February. Time of day is kept.
func AddMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := DaysIn(first)
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in t's month.
func DaysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Label returns a short human label for the window of g containing ref.
func Label(ref time.Time, g Granularity) string {
	w := ComputeWindow(ref, g)
	switch g {
	case Week:
		return fmt.Sprintf("%s – %s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
	case Month:
		return w.Start.Format("January 2006")
	default:
		return w.Start.Format("2006-01-02")
	}
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD date in now's location. An empty string yields now.
func ParseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	d, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}
