package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthCalendar(t *testing.T) {
	got := MonthCalendar(2025, time.January)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	assert.Equal(t, "    January 2025", lines[0])
	assert.Equal(t, "Mo Tu We Th Fr Sa Su", lines[1])
	assert.Equal(t, "       1  2  3  4  5", lines[2])
	assert.Equal(t, " 6  7  8  9 10 11 12", lines[3])
	assert.Equal(t, "27 28 29 30 31", lines[len(lines)-1])
}

func TestThreeMonthCalendar_WrapsYear(t *testing.T) {
	now := time.Date(2025, time.November, 20, 12, 0, 0, 0, time.UTC)
	got := ThreeMonthCalendar(now)

	assert.Contains(t, got, "November 2025")
	assert.Contains(t, got, "December 2025")
	assert.Contains(t, got, "January 2026")
}
