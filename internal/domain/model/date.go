package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Date is a calendar date in JSON. It decodes "2006-01-02" and RFC 3339
// timestamps and encodes as "2006-01-02".
type Date struct {
	time.Time
}

// DatePtr returns a *Date for t.
func DatePtr(t time.Time) *Date { return &Date{Time: t} }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("date: %q is neither %s nor RFC 3339", s, DateLayout)
}

// timePtr returns the date as a fresh *time.Time, nil for a nil d.
func (d *Date) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
