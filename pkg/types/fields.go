package types

import "time"

// Field accessors tolerate the numeric widening that serialization
// round-trips introduce (JSON yields float64, BSON int32 or int64).

// StringField returns the named field as a string, or "" if absent or not a
// string.
func (f Fields) StringField(key string) string {
	s, _ := f[key].(string)
	return s
}

// IntField returns the named field as an int, or 0 if absent or non-numeric.
func (f Fields) IntField(key string) int {
	switch n := f[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// TimeField returns the named field parsed as RFC 3339, or the zero time if
// absent or malformed.
func (f Fields) TimeField(key string) time.Time {
	s, ok := f[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Clone returns a shallow copy of the field map.
func (f Fields) Clone() Fields {
	clone := make(Fields, len(f))
	for k, v := range f {
		clone[k] = v
	}
	return clone
}

// dateKeyLayout is the calendar-day key format used by the meal plan.
const dateKeyLayout = "2006-01-02"

// DateKey returns the calendar-day key for t, in t's location.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}
