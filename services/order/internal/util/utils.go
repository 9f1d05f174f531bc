package util

import (
	"fmt"
	"strconv"
	"time"
)

const DefaultPageSize = 20

const dateLayout = "2006-01-02"

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}

	offset = (page - 1) * size
	limit = size
	return offset, limit
}

// ParseUint parses a positive id. Empty input yields nil.
func ParseUint(s string) (*uint, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 0)
	if err != nil || v == 0 {
		return nil, fmt.Errorf("invalid id %q", s)
	}
	id := uint(v)
	return &id, nil
}

func ParseBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("invalid boolean %q", s)
	}
	return &v, nil
}

// ParseTimeBound accepts RFC 3339 or a bare date. A bare date is the start of
// that UTC day, or its last instant when end is set.
func ParseTimeBound(s string, end bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	if end {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return &d, nil
}
