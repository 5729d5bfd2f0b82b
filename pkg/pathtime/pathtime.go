package pathtime

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

// ErrInvalidDate is returned when captured fields do not form a calendar date.
var ErrInvalidDate = errors.New("invalid calendar date")

// Options configures an Extractor.
type Options struct {
	// Timestamp carries the reference zone. Paths never carry an offset, so
	// every extracted instant is in that zone.
	Timestamp timestamp.Options

	// Recognizers replaces the built-in catalog when non-nil.
	Recognizers []Recognizer
}

// Extractor finds capture timestamps embedded in file paths.
type Extractor struct {
	ref         *time.Location
	recognizers []Recognizer
	log         *zap.Logger
}

// NewExtractor returns an Extractor. A nil logger discards log output.
func NewExtractor(logger *zap.Logger, opts Options) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	recognizers := opts.Recognizers
	if recognizers == nil {
		recognizers = DefaultCatalog()
	}
	return &Extractor{
		ref:         opts.Timestamp.Reference(),
		recognizers: recognizers,
		log:         logger,
	}
}

// Candidates returns every match in path, best first: the rightmost match
// wins and among matches starting at the same offset the longest wins.
// Remaining ties keep catalog order.
func (e *Extractor) Candidates(path string) []MatchCandidate {
	var all []MatchCandidate
	for _, r := range e.recognizers {
		all = append(all, r.Match(path)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start > all[j].Start
		}
		return all[i].Len() > all[j].Len()
	})
	return all
}

// Extract returns the instant encoded by the best candidate in path. If the
// best candidate is not a valid calendar date the result is absent; lower
// ranked candidates are not consulted.
func (e *Extractor) Extract(path string) (time.Time, bool) {
	candidates := e.Candidates(path)
	if len(candidates) == 0 {
		e.log.Error("no timestamp in path",
			timestamp.EventNoMatch.Field(),
			zap.String("input", path))
		return time.Time{}, false
	}

	best := candidates[0]
	t, err := Reconstruct(best.Fields, e.ref)
	if err != nil {
		e.log.Error("could not reconstruct timestamp from path",
			timestamp.EventNoMatch.Field(),
			zap.String("input", path),
			zap.String("recognizer", best.Recognizer),
			zap.String("token", path[best.Start:best.End]),
			zap.Error(err))
		return time.Time{}, false
	}
	return t, true
}

// Reconstruct builds an instant in loc from a partial field set. Missing
// month and day default to 1, missing time fields to 0.
func Reconstruct(f FieldSet, loc *time.Location) (time.Time, error) {
	y, err := number(f, FieldYear, -1)
	if err != nil {
		return time.Time{}, err
	}
	if y < 1 {
		return time.Time{}, fmt.Errorf("%w: year %d", ErrInvalidDate, y)
	}

	m, err := number(f, FieldMonth, 1)
	if err != nil {
		return time.Time{}, err
	}
	if name, ok := f[FieldMonthName]; ok {
		month, ok := lookupMonth(name)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: unknown month %q", ErrInvalidDate, name)
		}
		m = int(month)
	}
	if m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("%w: month %d", ErrInvalidDate, m)
	}

	d, err := number(f, FieldDay, 1)
	if err != nil {
		return time.Time{}, err
	}
	if last := daysIn(time.Month(m), y); d < 1 || d > last {
		return time.Time{}, fmt.Errorf("%w: day %d of %04d-%02d", ErrInvalidDate, d, y, m)
	}

	clock := [3]struct {
		name string
		max  int
	}{{FieldHour, 23}, {FieldMinute, 59}, {FieldSecond, 59}}
	var hms [3]int
	for i, c := range clock {
		v, err := number(f, c.name, 0)
		if err != nil {
			return time.Time{}, err
		}
		if v > c.max {
			return time.Time{}, fmt.Errorf("%w: %s %d", ErrInvalidDate, c.name, v)
		}
		hms[i] = v
	}

	ms, err := number(f, FieldMillisecond, 0)
	if err != nil {
		return time.Time{}, err
	}
	if ms > 999 {
		return time.Time{}, fmt.Errorf("%w: millisecond %d", ErrInvalidDate, ms)
	}

	return time.Date(y, time.Month(m), d, hms[0], hms[1], hms[2], ms*int(time.Millisecond), loc), nil
}

// number parses field name of f, or returns def if it is missing. A def of
// -1 marks the field as required.
func number(f FieldSet, name string, def int) (int, error) {
	s, ok := f[name]
	if !ok {
		if def < 0 {
			return 0, fmt.Errorf("%w: missing %s", ErrInvalidDate, name)
		}
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidDate, name, s)
	}
	return v, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
