package timestamp

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrEpochOverflow is returned when seconds cannot be converted to an integer count.
	ErrEpochOverflow = errors.New("epoch seconds overflow")

	// ErrEpochRejected is returned when the runtime cannot represent the instant at all.
	ErrEpochRejected = errors.New("epoch seconds rejected by runtime")

	// ErrEpochOutOfRange is returned when the instant falls outside years 1 through 9999.
	ErrEpochOutOfRange = errors.New("epoch seconds out of range")
)

// Go counts wall seconds from January 1, year 1; Unix seconds beyond these
// bounds wrap around inside time.Time.
const (
	unixToInternal   int64 = 62135596800
	maxRuntimeSecond       = math.MaxInt64 - unixToInternal
	minRuntimeSecond       = math.MinInt64 + unixToInternal
)

// Converter turns raw stat timestamps into canonical instants.
type Converter struct {
	ref *time.Location
	log *zap.Logger
}

// NewConverter returns a Converter. A nil logger discards log output.
func NewConverter(logger *zap.Logger, opts Options) *Converter {
	return &Converter{
		ref: opts.Reference(),
		log: nopIfNil(logger),
	}
}

// FromEpoch converts seconds since the Unix epoch to an instant in the
// reference zone. Unrepresentable input is logged and reported as absent.
func (c *Converter) FromEpoch(seconds float64) (time.Time, bool) {
	t, err := epochInstant(seconds, c.ref)
	if err != nil {
		c.log.Warn("could not convert epoch seconds",
			EventOutOfRange.Field(),
			zap.Float64("input", seconds),
			zap.Error(err))
		return time.Time{}, false
	}
	return t, true
}

func epochInstant(seconds float64, loc *time.Location) (time.Time, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, fmt.Errorf("%w: %v", ErrEpochOverflow, seconds)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which itself does not fit.
	if seconds >= float64(math.MaxInt64) || seconds < float64(math.MinInt64) {
		return time.Time{}, fmt.Errorf("%w: %v", ErrEpochOverflow, seconds)
	}

	whole := math.Floor(seconds)
	sec := int64(whole)
	usec := int64(math.RoundToEven((seconds - whole) * 1e6))
	if usec >= 1e6 {
		sec++
		usec -= 1e6
	}
	if sec > maxRuntimeSecond || sec < minRuntimeSecond {
		return time.Time{}, fmt.Errorf("%w: %d", ErrEpochRejected, sec)
	}

	t := time.Unix(sec, usec*int64(time.Microsecond)).In(loc)
	if y := t.Year(); y < 1 || y > 9999 {
		return time.Time{}, fmt.Errorf("%w: year %d", ErrEpochOutOfRange, y)
	}
	return t, nil
}
