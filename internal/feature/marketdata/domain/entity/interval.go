package entity

import (
	"fmt"
	"strings"
)

// Interval is the bar size understood by the API. Provider adapters translate
// it into their own vocabulary.
type Interval string

const (
	Interval1Min   Interval = "1m"
	Interval5Min   Interval = "5m"
	Interval15Min  Interval = "15m"
	Interval30Min  Interval = "30m"
	Interval1Hour  Interval = "1h"
	Interval1Day   Interval = "1d"
	Interval1Week  Interval = "1wk"
	Interval1Month Interval = "1mo"
)

// DefaultInterval is used when the caller does not specify one.
const DefaultInterval = Interval1Day

var knownIntervals = map[Interval]struct{}{
	Interval1Min:   {},
	Interval5Min:   {},
	Interval15Min:  {},
	Interval30Min:  {},
	Interval1Hour:  {},
	Interval1Day:   {},
	Interval1Week:  {},
	Interval1Month: {},
}

// ParseInterval validates s. An empty string yields DefaultInterval.
func ParseInterval(s string) (Interval, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultInterval, nil
	}
	iv := Interval(s)
	if _, ok := knownIntervals[iv]; !ok {
		return "", fmt.Errorf("unsupported interval %q", s)
	}
	return iv, nil
}

// Intraday reports whether bars of this size are shorter than a day.
func (iv Interval) Intraday() bool {
	switch iv {
	case Interval1Min, Interval5Min, Interval15Min, Interval30Min, Interval1Hour:
		return true
	}
	return false
}
