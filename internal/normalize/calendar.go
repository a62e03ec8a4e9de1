package normalize

import (
	"fmt"
	"strings"
	"time"
)

const calendarWidth = 20

// MonthCalendar renders a Monday-first month grid in plain text, the way a
// terminal `cal` would, so it survives a monospace chat bubble.
func MonthCalendar(year int, month time.Month) string {
	var b strings.Builder

	title := fmt.Sprintf("%s %d", month, year)
	pad := calendarWidth - len(title)
	if pad > 0 {
		b.WriteString(strings.Repeat(" ", pad/2))
	}
	b.WriteString(title)
	b.WriteString("\nMo Tu We Th Fr Sa Su\n")

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Monday = 0
	offset := (int(first.Weekday()) + 6) % 7
	days := first.AddDate(0, 1, -1).Day()

	cells := make([]string, 0, 7)
	flush := func() {
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		b.WriteString("\n")
		cells = cells[:0]
	}
	for i := 0; i < offset; i++ {
		cells = append(cells, "  ")
	}
	for day := 1; day <= days; day++ {
		cells = append(cells, fmt.Sprintf("%2d", day))
		if len(cells) == 7 {
			flush()
		}
	}
	if len(cells) > 0 {
		flush()
	}
	return b.String()
}

// ThreeMonthCalendar renders the month of now and the two following months.
func ThreeMonthCalendar(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	parts := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		m := first.AddDate(0, i, 0)
		parts = append(parts, MonthCalendar(m.Year(), m.Month()))
	}
	return strings.Join(parts, "\n")
}
