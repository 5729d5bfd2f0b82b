package timestamp

import (
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// layout is one entry of the structured layout catalog.
type layout struct {
	format string
	zoned  bool
}

// layouts is tried in order, most information first.
var layouts = []layout{
	{format: "2006:01:02 15:04:05.999999Z07:00", zoned: true},
	{format: "2006:01:02 15:04:05.999999"},
	{format: "2006:01:02 15:04:05Z07:00", zoned: true},
	{format: "2006:01:02 15:04:05"},
}

// grammar rejects what time.Parse would tolerate but the layouts do not
// describe, such as fractions longer than six digits or offsets of 60
// minutes or 24 hours.
var grammar = regexp.MustCompile(`^\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}(?:\.\d{1,6})?(?:Z|[+-](?:[01]\d|2[0-3]):[0-5]\d)?$`)

// Parser parses metadata timestamps such as "2021:11:27 20:00:11.610+01:00".
type Parser struct {
	ref  *time.Location
	norm *Normalizer
	log  *zap.Logger
}

// NewParser returns a Parser. A nil logger discards log output.
func NewParser(logger *zap.Logger, opts Options) *Parser {
	logger = nopIfNil(logger)
	return &Parser{
		ref:  opts.Reference(),
		norm: NewNormalizer(logger, opts),
		log:  logger,
	}
}

// Parse returns the canonical instant for s, or false if s matches none of
// the known layouts. Failures are logged, never returned.
func (p *Parser) Parse(s string) (time.Time, bool) {
	t, err := p.parse(s)
	if err != nil {
		p.log.Error("could not parse timestamp",
			EventNoMatch.Field(),
			zap.String("input", s),
			zap.Error(err))
		return time.Time{}, false
	}
	return t, true
}

func (p *Parser) parse(s string) (time.Time, error) {
	if !grammar.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoMatch, s)
	}
	for _, l := range layouts {
		t, err := time.Parse(l.format, s)
		if err != nil {
			continue
		}
		if !l.zoned {
			return wall(t, p.ref), nil
		}
		return p.norm.Normalize(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrNoMatch, s)
}

// Format renders t the way Python's datetime.isoformat does, which is the
// canonical text form used by stored records: the fraction is printed as
// six digits and only when non-zero, the offset always as ±hh:mm.
func Format(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format("2006-01-02T15:04:05-07:00")
	}
	return t.Format("2006-01-02T15:04:05.000000-07:00")
}
