package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	MinSeatRow  = 5
	MaxSeatRow  = 30
	seatLetters = "ABCDEF"
)

var seatPattern = regexp.MustCompile(`^(\d{1,2})([A-F])$`)

// ValidSeat reports whether token is a seat code within rows 5-30, A-F.
func ValidSeat(token string) bool {
	m := seatPattern.FindStringSubmatch(token)
	if m == nil {
		return false
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return row >= MinSeatRow && row <= MaxSeatRow
}

// ParseSeats turns a free-text seat request into exactly total seat codes.
// "auto" or no usable input yields an auto-assigned list. Invalid tokens are
// dropped, duplicates collapse to their first occurrence, shortfalls are
// filled from 5A, 5B, ... skipping taken seats, and extras are truncated.
func ParseSeats(text string, total int) []string {
	if total <= 0 {
		return []string{}
	}

	seats := make([]string, 0, total)
	taken := make(map[string]struct{}, total)

	if !strings.EqualFold(strings.TrimSpace(text), "auto") {
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == ',' || r == ';' || r == '\t' || r == '\n'
		})
		for _, f := range fields {
			token := strings.ToUpper(f)
			if !ValidSeat(token) {
				continue
			}
			token = canonicalSeat(token)
			if _, dup := taken[token]; dup {
				continue
			}
			taken[token] = struct{}{}
			seats = append(seats, token)
		}
	}

	if len(seats) > total {
		return seats[:total]
	}
	return fillSeats(seats, taken, total)
}

func fillSeats(seats []string, taken map[string]struct{}, total int) []string {
	for row := MinSeatRow; row <= MaxSeatRow && len(seats) < total; row++ {
		for _, letter := range seatLetters {
			if len(seats) == total {
				break
			}
			candidate := fmt.Sprintf("%d%c", row, letter)
			if _, ok := taken[candidate]; ok {
				continue
			}
			taken[candidate] = struct{}{}
			seats = append(seats, candidate)
		}
	}
	return seats
}

// canonicalSeat strips a leading zero so "07A" and "7A" are the same seat.
func canonicalSeat(token string) string {
	m := seatPattern.FindStringSubmatch(token)
	row, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%d%s", row, m[2])
}
