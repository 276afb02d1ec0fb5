// Package slots implements the availability arithmetic shared by the slot
// generator and the booking validator: clock-time parsing, weekly range
// membership, interval overlap, and candidate window generation.
package slots

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// DefaultStep is the spacing between generated candidate windows.
const DefaultStep = 15 * time.Minute

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Range is one weekly availability window, expressed in schedule-local clock
// time. DayOfWeek follows time.Weekday numbering: 0 is Sunday.
type Range struct {
	DayOfWeek int
	Start     string
	End       string
}

// Interval is an absolute busy period, treated as half-open [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Window is one bookable candidate of exactly the event duration.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(value string) (int, error) {
	if !clockPattern.MatchString(value) {
		return 0, fmt.Errorf("invalid time format: %s, use HH:MM", value)
	}
	var hour, minute int
	fmt.Sscanf(value, "%d:%d", &hour, &minute)
	return hour*60 + minute, nil
}

// MinuteOfDay returns the clock-time minute offset of t within its day.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapsAny reports whether [start,end) intersects any busy interval.
func OverlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

// WithinAvailability reports whether the minute-of-day interval
// [startMinute, endMinute] fits entirely inside one of the ranges declared
// for dayOfWeek. Both the slot generator and the booking validator answer
// slot membership through this predicate.
func WithinAvailability(dayOfWeek, startMinute, endMinute int, ranges []Range) bool {
	for _, r := range ranges {
		if r.DayOfWeek != dayOfWeek {
			continue
		}
		rangeStart, err := ParseClock(r.Start)
		if err != nil {
			continue
		}
		rangeEnd, err := ParseClock(r.End)
		if err != nil {
			continue
		}
		if startMinute >= rangeStart && endMinute <= rangeEnd {
			return true
		}
	}
	return false
}

// ForDay returns the ranges declared for the given weekday.
func ForDay(dayOfWeek int, ranges []Range) []Range {
	var matched []Range
	for _, r := range ranges {
		if r.DayOfWeek == dayOfWeek {
			matched = append(matched, r)
		}
	}
	return matched
}

// Generate walks every availability range matching the date's weekday in
// fixed step increments and returns the candidate windows of exactly
// duration length that start after now and whose buffered interval
// [start-buffer, end+buffer] does not intersect any busy interval. Windows
// are returned sorted by start time.
func Generate(date time.Time, ranges []Range, duration, buffer, step time.Duration, busy []Interval, now time.Time) []Window {
	if duration <= 0 {
		return nil
	}
	if step <= 0 {
		step = DefaultStep
	}

	var windows []Window
	for _, r := range ForDay(int(date.Weekday()), ranges) {
		rangeStart, err := ParseClock(r.Start)
		if err != nil {
			continue
		}
		rangeEnd, err := ParseClock(r.End)
		if err != nil {
			continue
		}

		year, month, day := date.Date()
		open := time.Date(year, month, day, rangeStart/60, rangeStart%60, 0, 0, date.Location())
		until := time.Date(year, month, day, rangeEnd/60, rangeEnd%60, 0, 0, date.Location())

		for current := open; !current.Add(duration).After(until); current = current.Add(step) {
			if !current.After(now) {
				continue
			}
			end := current.Add(duration)
			if OverlapsAny(current.Add(-buffer), end.Add(buffer), busy) {
				continue
			}
			windows = append(windows, Window{Start: current, End: end})
		}
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Start.Before(windows[j].Start)
	})
	return windows
}

// ValidateRange checks a single weekly range for well-formed clock times and
// a positive span.
func ValidateRange(r Range) error {
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return fmt.Errorf("day of week must be between 0 and 6, got %d", r.DayOfWeek)
	}
	start, err := ParseClock(r.Start)
	if err != nil {
		return err
	}
	end, err := ParseClock(r.End)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("end time (%s) must be greater than start time (%s)", r.End, r.Start)
	}
	return nil
}

// OverlappingPair scans the ranges of a single day and returns the first
// adjacent pair that overlap once sorted by start time.
func OverlappingPair(dayRanges []Range) (Range, Range, bool) {
	sorted := make([]Range, len(dayRanges))
	copy(sorted, dayRanges)
	sort.Slice(sorted, func(i, j int) bool {
		a, _ := ParseClock(sorted[i].Start)
		b, _ := ParseClock(sorted[j].Start)
		return a < b
	})

	for i := 0; i+1 < len(sorted); i++ {
		currentEnd, err := ParseClock(sorted[i].End)
		if err != nil {
			continue
		}
		nextStart, err := ParseClock(sorted[i+1].Start)
		if err != nil {
			continue
		}
		if currentEnd > nextStart {
			return sorted[i], sorted[i+1], true
		}
	}
	return Range{}, Range{}, false
}

// FitsDuration reports whether at least one range can hold a meeting of the
// given length.
func FitsDuration(duration time.Duration, ranges []Range) bool {
	minutes := int(duration / time.Minute)
	for _, r := range ranges {
		start, err := ParseClock(r.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(r.End)
		if err != nil {
			continue
		}
		if end-start >= minutes {
			return true
		}
	}
	return false
}
