// Package localtime carries wall-clock instants of the single operating
// calendar. Values are never normalized through UTC offsets; the canonical
// interchange and storage form is the fixed-width string "2006-01-02T15:04",
// which orders lexicographically the same way it orders chronologically.
package localtime

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const (
	Layout     = "2006-01-02T15:04"
	DateLayout = "2006-01-02"
)

// Time is a timezone-naive local date-time with minute precision.
// The zero value is the zero Time.
type Time struct {
	wall time.Time
}

// Parse reads the canonical "YYYY-MM-DDTHH:mm" form.
func Parse(s string) (Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Time{}, fmt.Errorf("invalid local time %q: expected format %s", s, Layout)
	}
	return Time{wall: t}, nil
}

// ParseDate reads "YYYY-MM-DD" and returns midnight of that day.
func ParseDate(s string) (Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Time{}, fmt.Errorf("invalid local date %q: expected format %s", s, DateLayout)
	}
	return Time{wall: t}, nil
}

func Date(year int, month time.Month, day, hour, minute int) Time {
	return Time{wall: time.Date(year, month, day, hour, minute, 0, 0, time.UTC)}
}

func (t Time) String() string {
	return t.wall.Format(Layout)
}

// DateString returns the calendar day portion, "YYYY-MM-DD".
func (t Time) DateString() string {
	return t.wall.Format(DateLayout)
}

func (t Time) IsZero() bool {
	return t.wall.IsZero()
}

func (t Time) Before(u Time) bool { return t.wall.Before(u.wall) }
func (t Time) After(u Time) bool  { return t.wall.After(u.wall) }
func (t Time) Equal(u Time) bool  { return t.wall.Equal(u.wall) }

func (t Time) Hour() int   { return t.wall.Hour() }
func (t Time) Minute() int { return t.wall.Minute() }

// MinutesOfDay returns minutes elapsed since midnight of t's day.
func (t Time) MinutesOfDay() int {
	return t.wall.Hour()*60 + t.wall.Minute()
}

func (t Time) AddMinutes(minutes int) Time {
	return Time{wall: t.wall.Add(time.Duration(minutes) * time.Minute)}
}

// Sub returns the duration t-u.
func (t Time) Sub(u Time) time.Duration {
	return t.wall.Sub(u.wall)
}

// StartOfDay returns midnight of t's calendar day.
func (t Time) StartOfDay() Time {
	y, m, d := t.wall.Date()
	return Date(y, m, d, 0, 0)
}

// At returns the given wall clock time on t's calendar day.
func (t Time) At(hour, minute int) Time {
	y, m, d := t.wall.Date()
	return Date(y, m, d, hour, minute)
}

func (t Time) SameDay(u Time) bool {
	ty, tm, td := t.wall.Date()
	uy, um, ud := u.wall.Date()
	return ty == uy && tm == um && td == ud
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid local time literal %s", s)
	}
	parsed, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// BSON round-trips as the canonical string so mongo range filters stay plain
// string comparisons with correct ordering.
func (t Time) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.String())
}

func (t *Time) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	var s string
	if err := bson.UnmarshalValue(bt, data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
