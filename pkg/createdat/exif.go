package createdat

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/g4b1nagy/PhotoTrip/pkg/exifmeta"
)

// exifSource decodes EXIF in-process and lays it out the way exiftool would,
// so the same resolver works without the external binary. Only JPEG and
// TIFF containers are understood.
type exifSource struct{}

// exifTags maps goexif field names to exiftool EXIF tag names.
var exifTags = []struct {
	field exif.FieldName
	tag   string
}{
	{exif.Make, "Make"},
	{exif.Model, "Model"},
	{exif.DateTimeOriginal, "DateTimeOriginal"},
	{exif.DateTimeDigitized, "CreateDate"},
	{exif.DateTime, "ModifyDate"},
	{bodySerialNumber, "SerialNumber"},
	{exif.LensMake, "LensMake"},
	{exif.LensModel, "LensModel"},
	{lensSerialNumber, "LensSerialNumber"},
}

// goexif does not know the Exif 2.3 serial number tags.
const (
	bodySerialNumber exif.FieldName = "BodySerialNumber"
	lensSerialNumber exif.FieldName = "LensSerialNumber"
)

var serialFields = map[uint16]exif.FieldName{
	0xA431: bodySerialNumber,
	0xA435: lensSerialNumber,
}

// loadSerials loads the serial number tags from the EXIF sub-IFD the same
// way goexif loads the tags it knows.
func loadSerials(x *exif.Exif) {
	ptr, err := x.Get(exif.ExifIFDPointer)
	if err != nil {
		return
	}
	offset, err := ptr.Int64(0)
	if err != nil || offset < 0 || offset >= int64(len(x.Raw)) {
		return
	}
	r := bytes.NewReader(x.Raw)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return
	}
	dir, _, err := tiff.DecodeDir(r, x.Tiff.Order)
	if err != nil {
		return
	}
	x.LoadTags(dir, serialFields, false)
}

func (exifSource) Metadata(name string, r io.Reader) (exifmeta.Tree, error) {
	tree := exifmeta.Tree{}

	x, err := exif.Decode(r)
	if err != nil {
		// A non-critical error still leaves a usable, partially populated x.
		if x == nil || exif.IsCriticalError(err) {
			return tree, nil
		}
	}

	loadSerials(x)

	for _, t := range exifTags {
		if s, ok := stringTag(x, t.field); ok {
			tree.Set("EXIF", t.tag, exifmeta.Record{Val: s})
		}
	}

	if orig, ok := stringTag(x, exif.DateTimeOriginal); ok {
		if sub, ok := stringTag(x, exif.SubSecTimeOriginal); ok {
			tree.Set("Composite", "SubSecDateTimeOriginal", exifmeta.Record{Val: orig + "." + sub})
		}
	}

	w, okW := intTag(x, exif.PixelXDimension)
	h, okH := intTag(x, exif.PixelYDimension)
	if okW && okH {
		tree.Set("Composite", "ImageSize", exifmeta.Record{
			Val: fmt.Sprintf("%dx%d", w, h),
			Num: fmt.Sprintf("%d %d", w, h),
		})
		tree.Set("Composite", "Megapixels", exifmeta.Record{Num: float64(w) * float64(h) / 1e6})
	}

	if lat, long, err := x.LatLong(); err == nil {
		tree.Set("Composite", "GPSPosition", exifmeta.Record{Num: fmt.Sprintf("%v %v", lat, long)})
		tree.Set("Composite", "GPSLatitude", exifmeta.Record{Num: lat})
		tree.Set("Composite", "GPSLongitude", exifmeta.Record{Num: long})
	}

	if alt, ok := altitude(x); ok {
		tree.Set("Composite", "GPSAltitude", exifmeta.Record{Num: alt})
	}

	if gps, ok := gpsDateTime(x); ok {
		tree.Set("Composite", "GPSDateTime", exifmeta.Record{Val: gps})
	}

	return tree, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	return s, s != ""
}

func intTag(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func ratTag(x *exif.Exif, name exif.FieldName, i int) (float64, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	r, err := tag.Rat(i)
	if err != nil {
		return 0, false
	}
	f, _ := r.Float64()
	return f, true
}

// altitude applies GPSAltitudeRef: 1 means below sea level.
func altitude(x *exif.Exif) (float64, bool) {
	alt, ok := ratTag(x, exif.GPSAltitude, 0)
	if !ok {
		return 0, false
	}
	if ref, ok := intTag(x, exif.GPSAltitudeRef); ok && ref == 1 {
		alt = -alt
	}
	return alt, true
}

// gpsDateTime joins GPSDateStamp and GPSTimeStamp, which are always UTC.
func gpsDateTime(x *exif.Exif) (string, bool) {
	date, ok := stringTag(x, exif.GPSDateStamp)
	if !ok {
		return "", false
	}
	var hms [3]int
	for i := range hms {
		f, ok := ratTag(x, exif.GPSTimeStamp, i)
		if !ok {
			return "", false
		}
		hms[i] = int(f)
	}
	return fmt.Sprintf("%s %02d:%02d:%02dZ", date, hms[0], hms[1], hms[2]), true
}
