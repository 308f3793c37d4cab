package engine

import (
	"fmt"
	"time"

	"github.com/tartampluch/go-saturdays/internal/config"
)

// SaturdaysInMonth returns the Saturdays of the month in ascending order.
// Dates are at midnight UTC on the proleptic Gregorian calendar; the result always has 4 or 5 entries.
func SaturdaysInMonth(month time.Month, year int) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Saturday) - int(first.Weekday()) + 7) % 7

	saturdays := make([]time.Time, 0, config.MaxOrdinal)
	for d := first.AddDate(0, 0, offset); d.Month() == month; d = d.AddDate(0, 0, 7) {
		saturdays = append(saturdays, d)
	}
	return saturdays
}

// SaturdayCount is the number of Saturdays in the month.
func SaturdayCount(month time.Month, year int) int {
	return len(SaturdaysInMonth(month, year))
}

// OrdinalSuffix returns the English ordinal suffix for a positive integer.
// 11, 12 and 13 always take "th".
func OrdinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// OrdinalLabel renders n with its suffix, e.g. "21st".
func OrdinalLabel(n int) string {
	return fmt.Sprintf("%d%s", n, OrdinalSuffix(n))
}

// Candidates splits the ordinals 1..maxOrdinal into the odd pattern {1,3,5}
// and the even pattern {2,4}.
func Candidates(maxOrdinal int) (odd, even []int) {
	odd, even = []int{}, []int{}
	for n := 1; n <= config.MaxOrdinal && n <= maxOrdinal; n++ {
		if n%2 == 1 {
			odd = append(odd, n)
		} else {
			even = append(even, n)
		}
	}
	return odd, even
}

// ApplyToggle computes the new working set of a month after a Saturday checkbox changes.
//
// Only two patterns are valid per month, so the toggled ordinal and the desired state
// alone select one: checking an odd Saturday (or unchecking an even one) yields the odd
// pattern, checking an even Saturday (or unchecking an odd one) yields the even pattern.
// The result never depends on current.
func ApplyToggle(current []int, toggled int, checked bool, maxOrdinal int) []int {
	odd, even := Candidates(maxOrdinal)

	wantOdd := toggled%2 == 1
	if !checked {
		wantOdd = !wantOdd
	}
	if wantOdd {
		return odd
	}
	return even
}

// RollingWindow returns the 12 months starting at (month, year).
func RollingWindow(month time.Month, year int) []MonthYear {
	window := make([]MonthYear, 0, config.WindowLength)
	m, y := month, year
	for i := 0; i < config.WindowLength; i++ {
		window = append(window, MonthYear{Month: m, Year: y})
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
	return window
}

// WindowFrom returns the rolling window that starts at the clock's current month.
func WindowFrom(c Clock) []MonthYear {
	now := c.Now()
	return RollingWindow(now.Month(), now.Year())
}
