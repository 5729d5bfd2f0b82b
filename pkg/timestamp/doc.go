// Package timestamp turns the textual and numeric timestamps found in media
// metadata into canonical instants.
//
// A canonical instant is a time.Time with microsecond resolution whose location
// is always a fixed UTC offset. Nothing returned by this package is "naive":
// when the input carries no offset, the configured reference zone (UTC unless
// configured otherwise) is used instead.
package timestamp
