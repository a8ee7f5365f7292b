package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// wireTimeLayout is spec §6's millisecond-precision RFC3339 wire
// format, e.g. "2026-08-06T12:00:00.000Z".
const wireTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Time wraps time.Time so every timestamp a Job or Contest exposes
// over JSON renders at millisecond precision instead of Go's default
// variable-precision RFC3339Nano. Scan/Value delegate to the embedded
// time.Time so it still round-trips through lib/pq unchanged.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(wireTimeLayout) + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := time.Parse(wireTimeLayout, s)
	if err != nil {
		// Accept full-precision RFC3339Nano too, so a client that
		// hasn't trimmed its own clock to milliseconds isn't rejected.
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("types: invalid time %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// Scan implements sql.Scanner by delegating to time.Time.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		t.Time = v
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Time", src)
	}
}

// Value implements driver.Valuer by delegating to time.Time.
func (t Time) Value() (driver.Value, error) {
	return t.Time, nil
}
