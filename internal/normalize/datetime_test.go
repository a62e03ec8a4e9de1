package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

func TestParseDate(t *testing.T) {
	loc := kolkata(t)

	testCases := []struct {
		name    string
		input   string
		wantOK  bool
		date    string
		hasTime bool
		clock   Clock
	}{
		{name: "iso date", input: "2025-01-01", wantOK: true, date: "2025-01-01"},
		{name: "iso with 24h time", input: "2025-09-03 21:30", wantOK: true, date: "2025-09-03", hasTime: true, clock: Clock{21, 30}},
		{name: "iso with T and pm", input: "2025-09-03T9:30pm", wantOK: true, date: "2025-09-03", hasTime: true, clock: Clock{21, 30}},
		{name: "iso with bare hour", input: "2025-09-03 9", wantOK: true, date: "2025-09-03", hasTime: true, clock: Clock{9, 0}},
		{name: "dmy date", input: "03/09/2025", wantOK: true, date: "2025-09-03"},
		{name: "dmy with am", input: "03/09/2025 9am", wantOK: true, date: "2025-09-03", hasTime: true, clock: Clock{9, 0}},
		{name: "dmy with 12am", input: "03-09-2025 12am", wantOK: true, date: "2025-09-03", hasTime: true, clock: Clock{0, 0}},
		{name: "nonexistent day", input: "2025-02-30", wantOK: false},
		{name: "month out of range", input: "2025-13-01", wantOK: false},
		{name: "hour out of range", input: "2025-09-03 25:00", wantOK: false},
		{name: "meridiem hour out of range", input: "2025-09-03 13pm", wantOK: false},
		{name: "natural language", input: "next friday", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in, ok := ParseDate(tc.input, loc)
			require.Equal(t, tc.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.date, in.Date.Format("2006-01-02"))
			assert.Equal(t, loc, in.Date.Location())
			assert.Equal(t, tc.hasTime, in.HasTime)
			assert.Equal(t, tc.clock, in.Clock)
		})
	}
}

func TestParseClock(t *testing.T) {
	testCases := []struct {
		input  string
		wantOK bool
		clock  Clock
	}{
		{input: "09:30", wantOK: true, clock: Clock{9, 30}},
		{input: "9:05", wantOK: true, clock: Clock{9, 5}},
		{input: "23:59", wantOK: true, clock: Clock{23, 59}},
		{input: "9am", wantOK: true, clock: Clock{9, 0}},
		{input: "9 PM", wantOK: true, clock: Clock{21, 0}},
		{input: "12pm", wantOK: true, clock: Clock{12, 0}},
		{input: "12am", wantOK: true, clock: Clock{0, 0}},
		{input: "24:00", wantOK: false},
		{input: "9:60", wantOK: false},
		{input: "0am", wantOK: false},
		{input: "noon", wantOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			c, ok := ParseClock(tc.input)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.clock, c)
		})
	}
}

func TestTimeChoices(t *testing.T) {
	loc := kolkata(t)
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, loc)

	t.Run("now far in the past keeps every preset", func(t *testing.T) {
		now := time.Date(2024, 6, 1, 10, 0, 0, 0, loc)
		assert.Equal(t, []string{"06:00", "09:00", "12:00", "15:00", "18:00", "21:00"}, TimeChoices(date, now, 12*time.Hour))
	})

	t.Run("advance window drops early presets", func(t *testing.T) {
		now := time.Date(2024, 12, 31, 20, 0, 0, 0, loc)
		assert.Equal(t, []string{"09:00", "12:00", "15:00", "18:00", "21:00"}, TimeChoices(date, now, 12*time.Hour))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		now := time.Date(2025, 1, 1, 9, 0, 0, 0, loc)
		assert.Equal(t, []string{"21:00"}, TimeChoices(date, now, 12*time.Hour))
	})

	t.Run("nothing left", func(t *testing.T) {
		now := time.Date(2025, 1, 1, 10, 0, 0, 0, loc)
		assert.Empty(t, TimeChoices(date, now, 12*time.Hour))
	})
}
