package pathtime

import "strings"

// Field grammar shared by the catalog.
const (
	year   = `(?P<year>\d{4})`
	month  = `(?P<month>\d{2})`
	day    = `(?P<day>\d{2})`
	hour   = `(?P<hour>\d{2})`
	minute = `(?P<minute>\d{2})`
	second = `(?P<second>\d{2})`
	milli  = `(?P<millisecond>\d{3})`

	shortDay = `(?P<day>\d{1,2})`
	sep      = `[ _.-]`
)

// expr concatenates pattern fragments.
func expr(parts ...string) string {
	return strings.Join(parts, "")
}

// DefaultCatalog returns the built-in recognizers in priority order. The
// order only matters for candidates that share both start offset and
// length.
func DefaultCatalog() []Recognizer {
	monthName := `(?P<month_name>` + monthAlternation() + `)`
	dashDate := expr(year, "-", month, "-", day)

	return []Recognizer{
		newPattern("device_compact",
			expr(`(?i:IMG|PXL|VID)_`, year, month, day, "_", hour, minute, second, milli, "?"),
			isAlnum, noDigit),
		newPattern("device_colon",
			expr(`(?i:IMG|PXL|VID)_`, year, month, day, "_", hour, ":", minute, ":", second, `(?:[.:]`, milli, `)?`),
			isAlnum, noDigit),
		newPattern("device_date",
			expr(`(?i:IMG|VID)[-_]`, year, month, day),
			isAlnum, noDigit),
		newPattern("day_month_year",
			expr(shortDay, sep, monthName, sep, year),
			isDigit, noDigit),
		newPattern("month_day_year",
			expr(monthName, sep, shortDay, ",?", sep, year),
			isAlnum, noDigit),
		newPattern("date_dotted_time",
			expr(dashDate, `(?: (?i:at) |[ _-])`, hour, `\.`, minute, `\.`, second),
			isDigit, noDigit),
		newPattern("date_dashed_time",
			expr(dashDate, "[ _-]", hour, "-", minute, "-", second),
			isDigit, noDigit),
		newPattern("date_colon_time",
			expr(dashDate, "[ _T-]", hour, ":", minute, ":", second),
			isDigit, noDigit),
		newPattern("date_underscored_time",
			expr(dashDate, "[ _-]", hour, "_", minute, "_", second),
			isDigit, noDigit),
		newPattern("date_unit_time",
			expr(dashDate, "[ _-]", hour, "[hH]", minute, "[mM]", second, "[sS]", milli, "?"),
			isDigit, noDigit),
		newPattern("date_compact_time",
			expr(dashDate, "[ _-]", hour, minute, second),
			isDigit, noDigit),
		newPattern("dashed_date",
			dashDate,
			isDigit, noDigit),
		newPattern("dotted_date",
			expr(year, `\.`, month, `\.`, day),
			isDigit, noDigit),
		newPattern("underscored_datetime",
			expr(year, "_", month, "_", day, "[T_ -]", hour, "_", minute, "_", second, "(?:_", milli, ")?"),
			isDigit, noDigit),
		newPattern("underscored_date",
			expr(year, "_", month, "_", day),
			isDigit, noDigit),
		newPattern("compact_datetime",
			expr(year, month, day, "[-_]", hour, minute, second, "(?:_", milli, ")?"),
			isDigit, noDigit),
		newPattern("compact_packed",
			expr(year, month, day, hour, minute, second),
			isDigit, noDigit),
		newPattern("year_month_dirs",
			expr("/", year, "/", month),
			nil, slash),
		newPattern("year_dir",
			expr("/", year),
			nil, slash),
	}
}
