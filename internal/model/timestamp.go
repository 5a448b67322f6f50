package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout — формат last_used на диске (локальное время, точность до секунды).
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp сериализуется как "YYYY-MM-DD HH:MM:SS" в локальном времени.
type Timestamp struct {
	time.Time
}

// NewTimestamp отбрасывает доли секунды.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// ParseTimestamp принимает канонический формат, возможно с долями секунды.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range []string{TimestampLayout, "2006-01-02 15:04:05.999999999", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) String() string {
	return t.Local().Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
