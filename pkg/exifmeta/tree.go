package exifmeta

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Record is one tag as printed by exiftool's long JSON output.
type Record struct {
	// Val is the print-converted value.
	Val any `json:"val,omitempty"`
	// Num is the raw numeric value. exiftool omits it when it equals Val.
	Num any `json:"num,omitempty"`
	// Desc is the human readable tag description.
	Desc string `json:"desc,omitempty"`
}

// Tree maps group name to tag name to record. It is sparse: any group or tag
// may be missing.
type Tree map[string]map[string]Record

// Path addresses one tag in a Tree.
type Path struct {
	Group string
	Tag   string
}

func (p Path) String() string {
	return p.Group + ":" + p.Tag
}

// Lookup returns the record at group and tag.
func (t Tree) Lookup(group, tag string) (Record, bool) {
	tags, ok := t[group]
	if !ok {
		return Record{}, false
	}
	r, ok := tags[tag]
	return r, ok
}

// At returns the record at p.
func (t Tree) At(p Path) (Record, bool) {
	return t.Lookup(p.Group, p.Tag)
}

// Set stores r at group and tag, creating the group if needed.
func (t Tree) Set(group, tag string, r Record) {
	tags, ok := t[group]
	if !ok {
		tags = map[string]Record{}
		t[group] = tags
	}
	tags[tag] = r
}

// Decode reads exiftool JSON output, one tree per file. Both grouped output
// ("-g -j -l", nested by group) and prefixed output ("-G -j -l", keys such
// as "EXIF:Make") are accepted. Top level entries that are neither, such as
// SourceFile, are skipped.
func Decode(r io.Reader) ([]Tree, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var files []map[string]any
	if err := dec.Decode(&files); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	trees := make([]Tree, 0, len(files))
	for _, file := range files {
		tree := Tree{}
		for key, v := range file {
			if group, tag, ok := strings.Cut(key, ":"); ok {
				if rec, ok := decodeRecord(v); ok {
					tree.Set(group, tag, rec)
				}
				continue
			}
			tags, ok := v.(map[string]any)
			if !ok {
				continue
			}
			group := key
			for tag, rv := range tags {
				if rec, ok := decodeRecord(rv); ok {
					tree.Set(group, tag, rec)
				}
			}
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

func decodeRecord(v any) (Record, bool) {
	fields, ok := v.(map[string]any)
	if !ok {
		// Short output carries bare values.
		return Record{Val: v}, true
	}
	val, hasVal := fields["val"]
	num, hasNum := fields["num"]
	if !hasVal && !hasNum {
		return Record{}, false
	}
	desc, _ := fields["desc"].(string)
	return Record{Val: val, Num: num, Desc: desc}, true
}

// Text returns the print-converted value as trimmed text.
func (r Record) Text() (string, bool) {
	return text(r.Val)
}

// Number returns the numeric value, preferring Num over Val.
func (r Record) Number() (float64, bool) {
	if f, ok := number(r.Num); ok {
		return f, true
	}
	return number(r.Val)
}

// Raw returns the numeric value as text, preferring Num over Val. Composite
// tags such as ImageSize and GPSPosition hold several numbers this way.
func (r Record) Raw() (string, bool) {
	if s, ok := text(r.Num); ok {
		return s, true
	}
	return text(r.Val)
}

func text(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

func number(v any) (float64, bool) {
	switch v := v.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
