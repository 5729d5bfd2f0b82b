package pathtime

import (
	"sort"
	"strings"
	"time"
)

// monthNames maps lower-case month tokens to months. Besides English names
// and abbreviations it carries the abbreviations that differ in Dutch,
// German, Spanish and Portuguese camera and scanner software.
var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,

	"jan":  time.January,
	"feb":  time.February,
	"mar":  time.March,
	"apr":  time.April,
	"jun":  time.June,
	"jul":  time.July,
	"aug":  time.August,
	"sep":  time.September,
	"sept": time.September,
	"oct":  time.October,
	"nov":  time.November,
	"dec":  time.December,

	"mrt": time.March,
	"mei": time.May,
	"okt": time.October,
	"dez": time.December,
	"mai": time.May,
	"ene": time.January,
	"abr": time.April,
	"ago": time.August,
	"dic": time.December,
}

// monthAlternation returns a case-insensitive alternation of all month
// tokens. Longer tokens come first so "sept" is preferred over "sep".
func monthAlternation() string {
	names := make([]string, 0, len(monthNames))
	for name := range monthNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return "(?i:" + strings.Join(names, "|") + ")"
}

func lookupMonth(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(name)]
	return m, ok
}
