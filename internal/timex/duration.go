// Package timex contains time helpers shared by configuration and services.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration so it can be decoded from JSON either as a
// Go duration string ("15m", "24h") or as an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

// MarshalJSON implements json.Marshaler using the string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Clock returns the current time. Services hold one so tests can move time.
type Clock func() time.Time

// SystemClock is the real wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
