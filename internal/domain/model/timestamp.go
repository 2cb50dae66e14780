package model

import (
	"bytes"
	"fmt"
	"time"
)

// timestampLayouts — форматы дат, которые отдаёт backend (isoformat с зоной
// и без неё, дата без времени).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Timestamp — момент времени из JSON backend. Нулевое значение означает
// null или отсутствие поля.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON принимает строку в одном из timestampLayouts или null.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		t.Time = time.Time{}
		return nil
	}
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("timestamp: ожидалась строка, получено %s", b)
	}
	s := string(b[1 : len(b)-1])
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: некорректная дата %q", s)
}

// MarshalJSON сериализует в RFC 3339, нулевое значение — в null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// Format возвращает пустую строку для нулевого значения.
func (t Timestamp) Format(layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Time.Format(layout)
}
