package timestamp

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Normalizer validates the UTC offset of parsed instants.
//
// Some camera firmware writes offsets such as "-17:16" that parse fine but
// cannot be stored by the usual relational timestamp types. Those offsets are
// replaced by the reference zone while the wall-clock fields are kept.
type Normalizer struct {
	ref       *time.Location
	maxOffset int
	log       *zap.Logger
}

// NewNormalizer returns a Normalizer that logs substitutions to logger.
func NewNormalizer(logger *zap.Logger, opts Options) *Normalizer {
	return &Normalizer{
		ref:       opts.Reference(),
		maxOffset: opts.maxOffsetSeconds(),
		log:       nopIfNil(logger),
	}
}

// Normalize returns t with its offset as a fixed zone, or with the reference
// zone if the offset is out of range. The calendar fields are never changed.
func (n *Normalizer) Normalize(t time.Time) time.Time {
	loc, err := n.zone(t)
	if err != nil {
		n.log.Warn("substituting reference zone",
			EventOutOfRange.Field(),
			zap.String("input", t.Format(time.RFC3339Nano)),
			zap.String("reference", n.ref.String()),
			zap.Error(err))
		loc = n.ref
	}
	return wall(t, loc)
}

func (n *Normalizer) zone(t time.Time) (*time.Location, error) {
	_, offset := t.Zone()
	if offset > n.maxOffset || offset < -n.maxOffset {
		return nil, fmt.Errorf("%w: %+ds exceeds %ds", ErrOffsetOutOfRange, offset, n.maxOffset)
	}
	return fixedZone(offset), nil
}
