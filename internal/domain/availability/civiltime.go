package availability

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format used by windows, recurrence
// bounds, and search filters.
const DateLayout = "2006-01-02"

// CivilTime is a wall-clock time of day with no date or zone attached. The
// zero value is midnight.
type CivilTime struct {
	Hour   int
	Minute int
}

// ParseCivilTime parses a strict 24-hour "HH:mm" string. Both fields must be
// two digits: 12-hour forms, missing leading zeros, and out-of-range values
// are all rejected. Callers holding 12-hour input must convert before calling.
func ParseCivilTime(s string) (CivilTime, error) {
	if len(s) != 5 || s[2] != ':' ||
		!isDigit(s[0]) || !isDigit(s[1]) || !isDigit(s[3]) || !isDigit(s[4]) {
		return CivilTime{}, fmt.Errorf("invalid time %q: want 24-hour HH:mm", s)
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return CivilTime{}, fmt.Errorf("invalid time %q: hour must be 00-23 and minute 00-59", s)
	}
	return CivilTime{Hour: hour, Minute: minute}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Minutes returns the offset from midnight in minutes.
func (t CivilTime) Minutes() int { return t.Hour*60 + t.Minute }

// String renders the time back in "HH:mm" form.
func (t CivilTime) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Compare returns -1 when t is before other, 0 when equal, and 1 when after.
func (t CivilTime) Compare(other CivilTime) int {
	switch a, b := t.Minutes(), other.Minutes(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Add returns the time n minutes later. Wrapping past 23:59 is undefined;
// generation is bounded by the window end so valid configs never reach it.
func (t CivilTime) Add(n int) CivilTime {
	total := t.Minutes() + n
	return CivilTime{Hour: total / 60, Minute: total % 60}
}

// LoadZone resolves an IANA zone name against the runtime timezone database.
// Empty names and "Local" are rejected even though time.LoadLocation accepts
// them, because a stored window must name an explicit zone to stay portable
// across hosts.
func LoadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("invalid timezone %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q", name)
	}
	return loc, nil
}

// IsValidTimezone reports whether name resolves via LoadZone.
func IsValidTimezone(name string) bool {
	_, err := LoadZone(name)
	return err == nil
}

// ParseDate parses a calendar date in "YYYY-MM-DD" form.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// ToUTCInstant combines a calendar date with a civil time of day under loc
// and returns the corresponding UTC instant. DST handling follows time.Date:
// an ambiguous fall-back time resolves to its first occurrence
// (America/New_York 2024-11-03 01:30 becomes 05:30 UTC), and a nonexistent
// spring-forward time maps to the instant obtained with the neighboring zone
// offset (2024-03-10 02:30 becomes 06:30 UTC).
func ToUTCInstant(date time.Time, t CivilTime, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc).UTC()
}
