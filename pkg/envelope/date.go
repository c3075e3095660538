package envelope

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month used as the column key of every table the
// engine produces. It marshals as "YYYY-MM".
type Month struct {
	Year int
	Mon  time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Mon: t.Month()}
}

// ParseMonth parses a "YYYY-MM" string
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("unable to parse month: %s", s)
	}
	return MonthOf(t), nil
}

// String returns the month as "YYYY-MM"
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Mon))
}

// IsZero reports whether the month is the zero value
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Mon == 0
}

// First returns the first day of the month
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Mon, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of calendar days in the month.
func (m Month) Days() int {
	return m.First().AddDate(0, 1, -1).Day()
}

// Next returns the following month
func (m Month) Next() Month {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

// AddMonths returns the month n months after m (n may be negative).
func (m Month) AddMonths(n int) Month {
	return MonthOf(m.First().AddDate(0, n, 0))
}

// Before reports whether m is strictly earlier than other
func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Mon < other.Mon)
}

// After reports whether m is strictly later than other
func (m Month) After(other Month) bool {
	return other.Before(m)
}

// MonthsBetween returns the signed number of whole months from m to other.
func MonthsBetween(m, other Month) int {
	return (other.Year-m.Year)*12 + int(other.Mon) - int(m.Mon)
}

// MonthRange returns every month from start to end inclusive. An empty
// slice is returned when end is before start.
func MonthRange(start, end Month) []Month {
	if end.Before(start) {
		return nil
	}
	months := make([]Month, 0, MonthsBetween(start, end)+1)
	for m := start; !m.After(end); m = m.Next() {
		months = append(months, m)
	}
	return months
}

// UnmarshalJSON implements json.Unmarshaler for Month
func (m *Month) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	if str == "" || str == "null" {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalJSON implements json.Marshaler for Month
func (m Month) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf(`"%s"`, m.String())), nil
}
