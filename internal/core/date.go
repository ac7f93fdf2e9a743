package core

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp is implemented by backend-native timestamp values that expose
// their instant through a ToDate accessor.
type Timestamp interface {
	ToDate() time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeDate converts the representations a stored record may carry into a
// Date. Unresolvable values fail with ErrInvalidDate; they are never coerced
// to the current time.
func NormalizeDate(v any) (Date, error) {
	var t time.Time
	switch x := v.(type) {
	case Date:
		t = x.Time
	case *Date:
		if x == nil {
			return Date{}, fmt.Errorf("%w: nil", ErrInvalidDate)
		}
		t = x.Time
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return Date{}, fmt.Errorf("%w: nil", ErrInvalidDate)
		}
		t = *x
	case Timestamp:
		t = x.ToDate()
	case string:
		parsed, err := ParseISODate(x)
		if err != nil {
			return Date{}, err
		}
		return parsed, nil
	case nil:
		return Date{}, fmt.Errorf("%w: missing", ErrInvalidDate)
	default:
		return Date{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidDate, v)
	}
	d := Date{Time: t.UTC()}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// ParseISODate parses an ISO-8601 date or date-time string.
func ParseISODate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
}

// ISO renders the calendar day as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}
