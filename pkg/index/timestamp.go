package index

import (
	"time"
)

// Timestamp is a stat time as stored in the index: seconds since the epoch
// and nanoseconds, both truncated to 32 bits.
type Timestamp struct {
	Seconds     uint32
	Nanoseconds uint32
}

// NewTimestamp converts t.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{
		Seconds:     uint32(t.Unix()),
		Nanoseconds: uint32(t.Nanosecond()),
	}
}

// Time converts the timestamp back to UTC time.
func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t.Seconds), int64(t.Nanoseconds)).UTC()
}

func (t Timestamp) IsZero() bool { return t.Seconds == 0 && t.Nanoseconds == 0 }

func (t Timestamp) Equal(other Timestamp) bool {
	return t.Seconds == other.Seconds && t.Nanoseconds == other.Nanoseconds
}

// Before reports whether t is earlier than other.
func (t Timestamp) Before(other Timestamp) bool {
	if t.Seconds != other.Seconds {
		return t.Seconds < other.Seconds
	}
	return t.Nanoseconds < other.Nanoseconds
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return "0"
	}
	return t.Time().Format(time.RFC3339Nano)
}
