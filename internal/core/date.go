package core

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Date is a civil calendar date with no clock and no timezone. Parsing
// and formatting use the literal YYYY-MM-DD form so a stored date never
// shifts across timezones.
type Date struct {
	Year  int
	Month int // 1-12
	Day   int // 1-31
}

var (
	ErrInvalidDate = errors.New("invalid date")
)

// ParseDate parses a literal YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	// Atoi alone would let sign characters through ("-025" parses).
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if s[i] < '0' || s[i] > '9' {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
	}
	year, _ := strconv.Atoi(s[0:4])
	month, _ := strconv.Atoi(s[5:7])
	day, _ := strconv.Atoi(s[8:10])
	d := Date{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	if d.Month < 1 || d.Month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidDate, d.Month)
	}
	if d.Day < 1 || d.Day > lastDayOfMonth(d.Year, d.Month) {
		return fmt.Errorf("%w: day %d", ErrInvalidDate, d.Day)
	}
	return nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddMonths returns the date n calendar months later. When the source
// day does not exist in the target month the day is clamped to the
// target month's last day, so Jan 31 + 1 month is Feb 28 (or 29).
func (d Date) AddMonths(n int) Date {
	month := d.Month + n
	year := d.Year + (month-1)/12
	month = (month-1)%12 + 1
	if month < 1 {
		month += 12
		year--
	}
	day := d.Day
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// YearOf extracts the year from a literal YYYY-MM-DD string without a
// timezone-bearing parse. Returns 0 for malformed input.
func YearOf(s string) int {
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return 0
	}
	return year
}

// MonthOf extracts the 1-12 month from a literal YYYY-MM-DD string.
// Returns 0 for malformed input.
func MonthOf(s string) int {
	if len(s) < 7 || s[4] != '-' {
		return 0
	}
	month, err := strconv.Atoi(s[5:7])
	if err != nil || month < 1 || month > 12 {
		return 0
	}
	return month
}
