package timestamp

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxOffset is the largest UTC offset accepted from metadata. It is the
// limit of common timestamp-with-timezone column types (15:59:59).
const DefaultMaxOffset = 15*time.Hour + 59*time.Minute + 59*time.Second

var (
	// ErrNoMatch is returned when text does not conform to any known layout.
	ErrNoMatch = errors.New("no matching timestamp layout")

	// ErrOffsetOutOfRange is returned when a parsed offset exceeds the plausibility bound.
	ErrOffsetOutOfRange = errors.New("utc offset out of range")
)

// Event categorizes data-quality log entries so operators can tell garbage
// input apart from implausible-but-parseable input.
type Event string

const (
	EventNoMatch          Event = "no_match"
	EventOutOfRange       Event = "out_of_range"
	EventPartialAttribute Event = "partial_attribute"
)

// Field returns the zap field that tags a log entry with e.
func (e Event) Field() zap.Field {
	return zap.String("event", string(e))
}

// Options configures the parser, normalizer and converter.
type Options struct {
	// ReferenceOffset is the offset substituted when a timestamp has no
	// (or an implausible) offset. Zero means UTC.
	ReferenceOffset time.Duration

	// MaxOffset bounds the absolute value of accepted offsets.
	// If zero, DefaultMaxOffset is used.
	MaxOffset time.Duration
}

// Reference returns the reference zone as a fixed-offset location.
func (o Options) Reference() *time.Location {
	return fixedZone(int(o.ReferenceOffset / time.Second))
}

func (o Options) maxOffsetSeconds() int {
	if o.MaxOffset <= 0 {
		return int(DefaultMaxOffset / time.Second)
	}
	return int(o.MaxOffset / time.Second)
}

// fixedZone returns time.UTC for a zero offset so that UTC instants compare
// and print the same regardless of where they came from.
func fixedZone(offsetSeconds int) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", offsetSeconds)
}

// wall rebuilds t's calendar fields in loc without shifting them.
func wall(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
