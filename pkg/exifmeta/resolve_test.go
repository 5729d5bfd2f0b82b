package exifmeta

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

const phoneJSON = `[{
  "SourceFile": "/photos/PXL_20211127_190011610.jpg",
  "ExifTool": {"ExifToolVersion": {"desc": "ExifTool Version Number", "val": 12.4}},
  "File": {
    "FileType": {"desc": "File Type", "val": "JPEG"},
    "FileTypeExtension": {"desc": "File Type Extension", "val": "jpg "},
    "MIMEType": {"desc": "MIME Type", "val": "image/jpeg"}
  },
  "EXIF": {
    "Make": {"desc": "Make", "val": "Google"},
    "Model": {"desc": "Camera Model Name", "val": "Pixel 6"},
    "DateTimeOriginal": {"desc": "Date/Time Original", "val": "2021:11:27 20:00:11"},
    "LensMake": {"desc": "Lens Make", "val": "Google"},
    "LensModel": {"desc": "Lens Model", "val": "Pixel 6 back camera 6.81mm f/1.85"},
    "SerialNumber": {"desc": "Serial Number", "val": 12345678901}
  },
  "Composite": {
    "ImageSize": {"desc": "Image Size", "val": "4080x3072", "num": "4080 3072"},
    "Megapixels": {"desc": "Megapixels", "val": 12.5, "num": 12.533760},
    "SubSecDateTimeOriginal": {"desc": "Date/Time Original", "val": "2021:11:27 20:00:11.610+01:00"},
    "GPSPosition": {"desc": "GPS Position", "val": "46 deg 46' 12.00\" N, 23 deg 35' 24.00\" E", "num": "46.77 23.59"},
    "GPSAltitude": {"desc": "GPS Altitude", "val": "12.3 m Below Sea Level", "num": -12.3}
  }
}]`

func decodeOne(t *testing.T, s string) Tree {
	t.Helper()
	trees, err := Decode(strings.NewReader(s))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trees) != 1 {
		t.Fatalf("unexpected tree count\n got: %d\nwant: 1", len(trees))
	}
	return trees[0]
}

func TestResolvePhone(t *testing.T) {
	tree := decodeOne(t, phoneJSON)
	b := NewResolver(nil, nil).Resolve(tree)

	if b.FileType != "jpg" {
		t.Fatalf("unexpected file type\n got: %q\nwant: %q", b.FileType, "jpg")
	}
	if b.MIMEType != "image/jpeg" {
		t.Fatalf("unexpected mime type\n got: %q\nwant: %q", b.MIMEType, "image/jpeg")
	}
	if b.Dimensions == nil || *b.Dimensions != (Dimensions{Width: 4080, Height: 3072}) {
		t.Fatalf("unexpected dimensions: %+v", b.Dimensions)
	}
	if b.Megapixels == nil || *b.Megapixels != 12.53376 {
		t.Fatalf("unexpected megapixels: %v", b.Megapixels)
	}
	if b.TakenOn == nil {
		t.Fatal("expected taken on")
	}
	if got, want := timestamp.Format(*b.TakenOn), "2021-11-27T20:00:11.610000+01:00"; got != want {
		t.Fatalf("unexpected taken on\n got: %s\nwant: %s", got, want)
	}
	if b.GPS == nil || *b.GPS != (Coordinates{Latitude: 46.77, Longitude: 23.59}) {
		t.Fatalf("unexpected gps: %+v", b.GPS)
	}
	if b.Altitude == nil || *b.Altitude != -12.3 {
		t.Fatalf("unexpected altitude: %v", b.Altitude)
	}
	wantCamera := Camera{Make: "Google", Model: "Pixel 6", SerialNumber: "12345678901"}
	if b.Camera != wantCamera {
		t.Fatalf("unexpected camera\n got: %+v\nwant: %+v", b.Camera, wantCamera)
	}
	wantLens := Lens{Make: "Google", Name: "Pixel 6 back camera 6.81mm f/1.85", Position: LensBack}
	if b.Lens != wantLens {
		t.Fatalf("unexpected lens\n got: %+v\nwant: %+v", b.Lens, wantLens)
	}
}

func TestTakenOnFallback(t *testing.T) {
	tree := Tree{}
	tree.Set("EXIF", "ModifyDate", Record{Val: "2012:07:21 17:19:28"})

	got, ok := NewResolver(nil, nil).TakenOn(tree)
	if !ok {
		t.Fatal("expected taken on from the lowest priority tag")
	}
	if s, want := timestamp.Format(got), "2012-07-21T17:19:28+00:00"; s != want {
		t.Fatalf("unexpected taken on\n got: %s\nwant: %s", s, want)
	}
}

func TestTakenOnSkipsUnparseable(t *testing.T) {
	tree := Tree{}
	tree.Set("Composite", "SubSecDateTimeOriginal", Record{Val: "0000:00:00 00:00:00"})
	tree.Set("EXIF", "DateTimeOriginal", Record{Val: "    :  :     :  :  "})
	tree.Set("QuickTime", "CreateDate", Record{Val: "2019:05:19 09:43:10"})
	tree.Set("EXIF", "ModifyDate", Record{Val: "2020:01:01 00:00:00"})

	got, ok := NewResolver(nil, nil).TakenOn(tree)
	if !ok {
		t.Fatal("expected taken on")
	}
	if s, want := timestamp.Format(got), "2019-05-19T09:43:10+00:00"; s != want {
		t.Fatalf("unexpected taken on\n got: %s\nwant: %s", s, want)
	}
}

func TestTakenOnPriority(t *testing.T) {
	tree := Tree{}
	tree.Set("EXIF", "CreateDate", Record{Val: "2001:01:01 00:00:00"})
	tree.Set("XMP", "DateTimeOriginal", Record{Val: "2002:02:02 02:02:02+02:00"})
	tree.Set("Composite", "GPSDateTime", Record{Val: "2003:03:03 03:03:03Z"})

	got, ok := NewResolver(nil, nil).TakenOn(tree)
	if !ok {
		t.Fatal("expected taken on")
	}
	if s, want := timestamp.Format(got), "2002-02-02T02:02:02+02:00"; s != want {
		t.Fatalf("unexpected taken on\n got: %s\nwant: %s", s, want)
	}
}

func TestTakenOnWalksEveryPathInOrder(t *testing.T) {
	r := NewResolver(nil, nil)

	for i := range takenOnPaths {
		tree := Tree{}
		for j, p := range takenOnPaths[i:] {
			tree.Set(p.Group, p.Tag, Record{Val: fmt.Sprintf("%d:06:15 12:00:00", 2000+i+j)})
		}

		got, ok := r.TakenOn(tree)
		if !ok {
			t.Fatalf("expected taken on from %v", takenOnPaths[i])
		}
		if got.Year() != 2000+i {
			t.Fatalf("unexpected taken on year for %v\n got: %d\nwant: %d", takenOnPaths[i], got.Year(), 2000+i)
		}
	}
}

func TestDimensions(t *testing.T) {
	testCases := []struct {
		rec  Record
		want *Dimensions
	}{
		{rec: Record{Val: "10.5x20"}, want: nil},
		{rec: Record{Val: "10.5x20", Num: "10.5 20"}, want: nil},
		{rec: Record{Val: "640x480"}, want: &Dimensions{Width: 640, Height: 480}},
		{rec: Record{Val: "640x480", Num: "640 480"}, want: &Dimensions{Width: 640, Height: 480}},
		{rec: Record{Val: "640"}, want: nil},
		{rec: Record{Val: "axb"}, want: nil},
		{rec: Record{Val: 640.0}, want: nil},
	}

	r := NewResolver(nil, nil)
	for _, tc := range testCases {
		tree := Tree{}
		tree.Set("Composite", "ImageSize", tc.rec)

		got, ok := r.Dimensions(tree)
		if tc.want == nil {
			if ok {
				t.Fatalf("Dimensions(%+v) = %+v, want absent", tc.rec, got)
			}
			continue
		}
		if !ok || got != *tc.want {
			t.Fatalf("unexpected dimensions for %+v\n got: %+v\nwant: %+v", tc.rec, got, *tc.want)
		}
	}
}

func TestGPS(t *testing.T) {
	r := NewResolver(nil, nil)

	tree := Tree{}
	tree.Set("Composite", "GPSLatitude", Record{Val: "46 deg 46' 12.00\" N", Num: json.Number("46.77")})
	if _, ok := r.GPS(tree); ok {
		t.Fatal("latitude alone must not resolve")
	}

	tree.Set("Composite", "GPSLongitude", Record{Val: "23 deg 35' 24.00\" W", Num: json.Number("-23.59")})
	got, ok := r.GPS(tree)
	if !ok {
		t.Fatal("expected coordinates")
	}
	if want := (Coordinates{Latitude: 46.77, Longitude: -23.59}); got != want {
		t.Fatalf("unexpected coordinates\n got: %+v\nwant: %+v", got, want)
	}

	tree.Set("Composite", "GPSPosition", Record{Num: "-33.85 151.2"})
	got, _ = r.GPS(tree)
	if want := (Coordinates{Latitude: -33.85, Longitude: 151.2}); got != want {
		t.Fatalf("position should win\n got: %+v\nwant: %+v", got, want)
	}
}

func TestCameraFallbacks(t *testing.T) {
	tree := Tree{}
	tree.Set("QuickTime", "Make", Record{Val: "Apple"})
	tree.Set("QuickTime", "Model", Record{Val: "iPhone 12"})
	tree.Set("MakerNotes", "SerialNumber", Record{Val: " 0042 "})
	tree.Set("EXIF", "Model", Record{Val: "  "})

	got := NewResolver(nil, nil).Camera(tree)
	want := Camera{Make: "Apple", Model: "iPhone 12", SerialNumber: "0042"}
	if got != want {
		t.Fatalf("unexpected camera\n got: %+v\nwant: %+v", got, want)
	}
	if (Camera{}).Empty() != true || want.Empty() {
		t.Fatal("unexpected Empty result")
	}
}

func TestLensPosition(t *testing.T) {
	testCases := []struct {
		name string
		want LensPosition
	}{
		{"iPhone 12 front camera 2.71mm f/2.2", LensFront},
		{"iPhone 12 back dual wide camera 4.2mm f/1.6", LensBack},
		{"EF24-105mm f/4L IS USM", ""},
		{"Backlit 50mm", ""},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := lensPosition(tc.name); got != tc.want {
			t.Fatalf("unexpected position for %q\n got: %q\nwant: %q", tc.name, got, tc.want)
		}
	}
}

func TestLensNameFallback(t *testing.T) {
	tree := Tree{}
	tree.Set("EXIF", "LensModel", Record{Val: "RF24-105mm F4 L IS USM"})
	tree.Set("EXIF", "LensSerialNumber", Record{Val: json.Number("9100001234")})

	got := NewResolver(nil, nil).Lens(tree)
	want := Lens{Name: "RF24-105mm F4 L IS USM", SerialNumber: "9100001234"}
	if got != want {
		t.Fatalf("unexpected lens\n got: %+v\nwant: %+v", got, want)
	}
}

func TestResolveEmptyTreeLogsPartialAttributes(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := NewResolver(zap.New(core), nil).Resolve(Tree{})

	if b.Dimensions != nil || b.Megapixels != nil || b.TakenOn != nil || b.GPS != nil || b.Altitude != nil {
		t.Fatalf("unexpected attributes: %+v", b)
	}
	if !b.Camera.Empty() || b.Lens != (Lens{}) {
		t.Fatalf("unexpected identities: %+v %+v", b.Camera, b.Lens)
	}

	// file type, mime type, dimensions, megapixels, taken on, gps, altitude,
	// three camera fields and three lens fields.
	if n := logs.FilterField(timestamp.EventPartialAttribute.Field()).Len(); n != 13 {
		t.Fatalf("unexpected partial_attribute entries\n got: %d\nwant: 13", n)
	}
	if n := logs.FilterField(zap.String("attribute", "taken_on")).Len(); n != 1 {
		t.Fatalf("unexpected taken_on entries\n got: %d\nwant: 1", n)
	}
}

func TestDecodePrefixedKeys(t *testing.T) {
	tree := decodeOne(t, `[{"SourceFile": "a.jpg", "EXIF:Make": {"val": "Canon"}, "Composite:Megapixels": {"val": 24.2}}]`)

	rec, ok := tree.Lookup("EXIF", "Make")
	if !ok {
		t.Fatal("expected EXIF:Make")
	}
	if s, _ := rec.Text(); s != "Canon" {
		t.Fatalf("unexpected make\n got: %q\nwant: %q", s, "Canon")
	}
	if f, ok := NewResolver(nil, nil).Megapixels(tree); !ok || f != 24.2 {
		t.Fatalf("unexpected megapixels: %v %v", f, ok)
	}
	if _, ok := tree["SourceFile"]; ok {
		t.Fatal("SourceFile must not become a group")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(strings.NewReader("Error: File not found")); err == nil {
		t.Fatal("expected an error")
	}
}
