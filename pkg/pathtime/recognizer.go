package pathtime

import (
	"regexp"
)

// Field names captured by recognizers.
const (
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldDay         = "day"
	FieldHour        = "hour"
	FieldMinute      = "minute"
	FieldSecond      = "second"
	FieldMillisecond = "millisecond"
	FieldMonthName   = "month_name"
)

// FieldSet holds the textual date and time fields captured by one match.
// Fields that were not captured are missing from the map.
type FieldSet map[string]string

// MatchCandidate is one recognizer match inside a path.
type MatchCandidate struct {
	// Start and End are byte offsets of the matched token, End exclusive.
	Start, End int

	Fields FieldSet

	// Recognizer is the name of the recognizer that produced the match.
	Recognizer string
}

// Len returns the length of the matched token in bytes.
func (c MatchCandidate) Len() int {
	return c.End - c.Start
}

// Recognizer finds every non-overlapping occurrence of one timestamp
// convention in a text.
type Recognizer interface {
	Name() string
	Match(text string) []MatchCandidate
}

// edge reports whether a neighboring byte would make a token part of a
// longer run.
type edge func(b byte) bool

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

func isAlnum(b byte) bool {
	return isDigit(b) || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// patternRecognizer matches a regular expression whose named groups are the
// captured fields.
//
// RE2 has no lookaround, so the boundaries are handled outside the
// token: the byte before it is checked by hand, and the byte after it is
// matched by a trailing group in the expression so that optional suffixes
// can still back off when they would run into a digit. Scanning resumes at
// the end of the token, so the trailing byte can start the next match.
type patternRecognizer struct {
	name  string
	re    *regexp.Regexp
	tok   int
	left  edge
	names []string
}

// Right boundaries, matched after the token without becoming part of it.
const (
	noDigit = `(?:\D|$)`
	slash   = `/`
)

// newPattern compiles body into a recognizer. left guards the byte before
// the token and may be nil. right must follow the token and may be empty.
func newPattern(name, body string, left edge, right string) *patternRecognizer {
	expr := "(?P<tok>" + body + ")" + right
	re := regexp.MustCompile(expr)
	return &patternRecognizer{
		name:  name,
		re:    re,
		tok:   re.SubexpIndex("tok"),
		left:  left,
		names: re.SubexpNames(),
	}
}

func (r *patternRecognizer) Name() string {
	return r.name
}

func (r *patternRecognizer) Match(text string) []MatchCandidate {
	var out []MatchCandidate
	for pos := 0; pos < len(text); {
		loc := r.re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2*r.tok], pos+loc[2*r.tok+1]
		if r.left != nil && start > 0 && r.left(text[start-1]) {
			pos = start + 1
			continue
		}

		fields := FieldSet{}
		for i, name := range r.names {
			if name == "" || i == r.tok || loc[2*i] < 0 {
				continue
			}
			fields[name] = text[pos+loc[2*i] : pos+loc[2*i+1]]
		}
		out = append(out, MatchCandidate{
			Start:      start,
			End:        end,
			Fields:     fields,
			Recognizer: r.name,
		})
		pos = end
	}
	return out
}
