package core

import (
	"time"
)

// Timestamp represents a point in time with timezone awareness
type Timestamp time.Time

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Stamp formats the timestamp for artifact file names
func (t Timestamp) Stamp() string {
	return time.Time(t).Format("20060102_150405")
}

// String returns the RFC3339 form
func (t Timestamp) String() string {
	return time.Time(t).Format(time.RFC3339)
}

// Millis reports the time elapsed since start in fractional milliseconds
func Millis(start time.Time) float64 {
	return float64(time.Since(start).Nanoseconds()) / 1e6
}

// JSON marshaling for Timestamp
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(t).MarshalJSON()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}
