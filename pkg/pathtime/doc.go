// Package pathtime extracts capture timestamps from file paths.
//
// Cameras, phones and messaging apps name files after the moment they were
// taken, each with its own convention: IMG_20001231_223059.jpg,
// PXL_20001231_223059123.jpg, 2000-12-31 AT 22.30.59.png, 31 Jan 2000.jpg.
// Scanned archives are often sorted into year directories instead.
//
// An Extractor runs a catalog of recognizers over the whole path and keeps
// every match. The rightmost match wins, since the file name is closer to the
// asset than its directories; among matches that start at the same offset
// the longest wins. Fields missing from the winning match take their
// calendar defaults and the result is placed in the reference zone.
package pathtime
