package utils

import (
	"fmt"
	"time"
)

// Timestamp is time rounded to seconds.
type Timestamp struct {
	t time.Time
}

func NewTimestamp() Timestamp {
	return Timestamp{t: time.Now().UTC().Round(time.Second)}
}

func NewTimestampP() *Timestamp {
	t := NewTimestamp()
	return &t
}

func NewTimestampFor(t time.Time) Timestamp {
	return Timestamp{t: t.UTC().Round(time.Second)}
}

func NewTimestampPFor(t time.Time) *Timestamp {
	ts := NewTimestampFor(t)
	return &ts
}

// MarshalJSON implements the json.Marshaler interface.
// The time is a quoted string in RFC 3339 format, in whole seconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if y := t.t.Year(); y < 0 || y >= 10000 {
		// RFC 3339 is clear that years are 4 digits exactly.
		return nil, fmt.Errorf("Timestamp.MarshalJSON: year outside of range [0,9999]")
	}

	b := make([]byte, 0, len(time.RFC3339)+2)
	b = append(b, '"')
	b = t.t.AppendFormat(b, time.RFC3339)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// The time is expected to be a quoted string in RFC 3339 format.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	tt, err := time.Parse(`"`+time.RFC3339+`"`, string(data))
	if err != nil {
		return err
	}
	*t = NewTimestampFor(tt)
	return nil
}

func (t Timestamp) String() string {
	return t.t.Format(time.RFC3339)
}

func (t Timestamp) Time() time.Time {
	return t.t
}

func (t Timestamp) Before(o Timestamp) bool {
	return t.t.Before(o.t)
}

func (t Timestamp) Equal(o Timestamp) bool {
	return t.t.Equal(o.t)
}

func (t Timestamp) Add(d time.Duration) Timestamp {
	return NewTimestampFor(t.t.Add(d))
}
