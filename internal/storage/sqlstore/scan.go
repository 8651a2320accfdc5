package sqlstore

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
)

// TimeLayout is the fixed-width text encoding used where timestamps are stored
// as TEXT, so that lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// EncodeTextTime formats t for a TEXT timestamp column
func EncodeTextTime(t time.Time) any {
	return t.UTC().Format(TimeLayout)
}

// EncodeNativeTime passes t through for drivers with a native timestamp type
func EncodeNativeTime(t time.Time) any {
	return t.UTC()
}

// timeValue scans a timestamp stored either natively or as text
type timeValue struct {
	Time  time.Time
	Valid bool
}

func (v *timeValue) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		v.Time, v.Valid = time.Time{}, false
		return nil
	case time.Time:
		v.Time, v.Valid = x.UTC(), true
		return nil
	case string:
		return v.parse(x)
	case []byte:
		return v.parse(string(x))
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (v *timeValue) parse(s string) error {
	for _, layout := range []string{TimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			v.Time, v.Valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

func (v timeValue) Ptr() *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// dayValue scans a calendar day stored as DATE or as YYYY-MM-DD text
type dayValue string

func (d *dayValue) Scan(src any) error {
	switch x := src.(type) {
	case time.Time:
		// DATE columns come back as midnight UTC
		*d = dayValue(x.UTC().Format(constants.DateFormat))
	case string:
		*d = dayValue(x)
	case []byte:
		*d = dayValue(string(x))
	default:
		return fmt.Errorf("cannot scan %T into day", src)
	}
	if len(*d) > len(constants.DateFormat) {
		*d = (*d)[:len(constants.DateFormat)]
	}
	return nil
}
