// Package createdat provides best-effort attribution of a media file's creation timestamp.
//
// The timestamp attribution follows a priority order: the taken-on time resolved from
// embedded metadata, then a timestamp embedded in the path, then the file's mtime.
// Every candidate is reported alongside the winner so callers can audit the choice.
package createdat
