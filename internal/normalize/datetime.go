package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDatePattern = regexp.MustCompile(`(?i)^(\d{4})-(\d{2})-(\d{2})(?:[ T](\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?$`)
	dmyDatePattern = regexp.MustCompile(`(?i)^(\d{2})[/-](\d{2})[/-](\d{4})(?:\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?)?$`)
	clockPattern   = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	meridiemClock  = regexp.MustCompile(`(?i)^(\d{1,2})\s*(am|pm)$`)
)

// PresetTimes are the departure times offered after a bare date.
var PresetTimes = []Clock{{6, 0}, {9, 0}, {12, 0}, {15, 0}, {18, 0}, {21, 0}}

type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// DateInput is a parsed date, midnight in the user's zone, with an optional
// inline clock.
type DateInput struct {
	Date    time.Time
	Clock   Clock
	HasTime bool
}

// At returns the absolute departure for the date at the given clock.
func (d DateInput) At(c Clock) time.Time {
	return time.Date(d.Date.Year(), d.Date.Month(), d.Date.Day(), c.Hour, c.Minute, 0, 0, d.Date.Location())
}

// Departure returns the inline departure; only meaningful when HasTime.
func (d DateInput) Departure() time.Time {
	return d.At(d.Clock)
}

// ParseDate accepts YYYY-MM-DD or DD/MM/YYYY, each with an optional time of
// HH:MM, H, Ham/pm or H:MMam/pm. Dates that do not exist and clocks out of
// range are rejected.
func ParseDate(text string, loc *time.Location) (DateInput, bool) {
	text = strings.TrimSpace(text)

	var y, mo, d int
	var groups []string
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		y, mo, d = atoi(m[1]), atoi(m[2]), atoi(m[3])
		groups = m[4:]
	} else if m := dmyDatePattern.FindStringSubmatch(text); m != nil {
		d, mo, y = atoi(m[1]), atoi(m[2]), atoi(m[3])
		groups = m[4:]
	} else {
		return DateInput{}, false
	}

	date, ok := calendarDate(y, mo, d, loc)
	if !ok {
		return DateInput{}, false
	}
	in := DateInput{Date: date}

	if groups[0] != "" {
		minute := 0
		if groups[1] != "" {
			minute = atoi(groups[1])
		}
		clock, ok := makeClock(atoi(groups[0]), minute, strings.ToLower(groups[2]))
		if !ok {
			return DateInput{}, false
		}
		in.Clock, in.HasTime = clock, true
	}
	return in, true
}

// ParseClock accepts HH:MM (24h) or Ham/pm.
func ParseClock(text string) (Clock, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		return makeClock(atoi(m[1]), atoi(m[2]), "")
	}
	if m := meridiemClock.FindStringSubmatch(text); m != nil {
		return makeClock(atoi(m[1]), 0, m[2])
	}
	return Clock{}, false
}

// TimeChoices filters PresetTimes down to those at least minAdvance after now
// on the given date.
func TimeChoices(date time.Time, now time.Time, minAdvance time.Duration) []string {
	earliest := now.Add(minAdvance)
	in := DateInput{Date: date}
	choices := make([]string, 0, len(PresetTimes))
	for _, c := range PresetTimes {
		if !in.At(c).Before(earliest) {
			choices = append(choices, c.String())
		}
	}
	return choices
}

func makeClock(hour, minute int, meridiem string) (Clock, bool) {
	if minute < 0 || minute > 59 {
		return Clock{}, false
	}
	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return Clock{}, false
		}
		if hour == 12 {
			hour = 0
		}
		if meridiem == "pm" {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return Clock{}, false
		}
	}
	return Clock{Hour: hour, Minute: minute}, true
}

func calendarDate(y, mo, d int, loc *time.Location) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
