package exifmeta

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

// Candidate tag paths per attribute, most trustworthy first. They are
// read-only after init and shared by every Resolver.
var (
	fileTypePaths = []Path{{"File", "FileTypeExtension"}, {"File", "FileType"}}
	mimeTypePaths = []Path{{"File", "MIMEType"}}

	imageSizePath  = Path{"Composite", "ImageSize"}
	megapixelsPath = Path{"Composite", "Megapixels"}

	takenOnPaths = []Path{
		{"Composite", "SubSecDateTimeOriginal"},
		{"EXIF", "DateTimeOriginal"},
		{"XMP", "DateTimeOriginal"},
		{"Composite", "SubSecCreateDate"},
		{"EXIF", "CreateDate"},
		{"QuickTime", "CreateDate"},
		{"Composite", "GPSDateTime"},
		{"EXIF", "ModifyDate"},
	}

	gpsPositionPath  = Path{"Composite", "GPSPosition"}
	gpsLatitudePath  = Path{"Composite", "GPSLatitude"}
	gpsLongitudePath = Path{"Composite", "GPSLongitude"}
	gpsAltitudePath  = Path{"Composite", "GPSAltitude"}

	cameraMakePaths   = []Path{{"EXIF", "Make"}, {"QuickTime", "Make"}}
	cameraModelPaths  = []Path{{"EXIF", "Model"}, {"QuickTime", "Model"}}
	cameraSerialPaths = []Path{{"EXIF", "SerialNumber"}, {"MakerNotes", "SerialNumber"}}

	lensMakePaths   = []Path{{"EXIF", "LensMake"}}
	lensNamePaths   = []Path{{"Composite", "LensID"}, {"EXIF", "LensModel"}}
	lensSerialPaths = []Path{{"EXIF", "LensSerialNumber"}}
)

// Dimensions is an image size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Coordinates is a position in signed decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Camera identifies the body that took an asset. Any field may be empty.
type Camera struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
}

// Empty reports whether no camera field was found.
func (c Camera) Empty() bool {
	return c.Make == "" && c.Model == "" && c.SerialNumber == ""
}

// LensPosition tells front from back lenses on phones.
type LensPosition string

const (
	LensFront LensPosition = "front"
	LensBack  LensPosition = "back"
)

// Lens identifies the lens that took an asset. Any field may be empty.
type Lens struct {
	Make         string       `json:"make"`
	Name         string       `json:"name"`
	SerialNumber string       `json:"serial_number"`
	Position     LensPosition `json:"position,omitempty"`
}

// Bundle holds every attribute resolved for one asset. Nil pointers and empty
// strings are attributes that could not be resolved.
type Bundle struct {
	FileType   string       `json:"file_type"`
	MIMEType   string       `json:"mime_type"`
	Dimensions *Dimensions  `json:"dimensions,omitempty"`
	Megapixels *float64     `json:"megapixels,omitempty"`
	TakenOn    *time.Time   `json:"taken_on,omitempty"`
	GPS        *Coordinates `json:"gps,omitempty"`
	Altitude   *float64     `json:"gps_altitude,omitempty"`
	Camera     Camera       `json:"camera"`
	Lens       Lens         `json:"lens"`
}

// Resolver derives typed attributes from a metadata tree. It is safe for
// concurrent use.
type Resolver struct {
	parser *timestamp.Parser
	log    *zap.Logger
}

// NewResolver returns a Resolver that parses time tags with parser. A nil
// logger discards log output.
func NewResolver(logger *zap.Logger, parser *timestamp.Parser) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = timestamp.NewParser(logger, timestamp.Options{})
	}
	return &Resolver{parser: parser, log: logger}
}

// Resolve resolves every attribute of t independently.
func (r *Resolver) Resolve(t Tree) Bundle {
	b := Bundle{
		Camera: r.Camera(t),
		Lens:   r.Lens(t),
	}
	b.FileType, _ = r.FileType(t)
	b.MIMEType, _ = r.MIMEType(t)
	if d, ok := r.Dimensions(t); ok {
		b.Dimensions = &d
	}
	if mp, ok := r.Megapixels(t); ok {
		b.Megapixels = &mp
	}
	if ts, ok := r.TakenOn(t); ok {
		b.TakenOn = &ts
	}
	if c, ok := r.GPS(t); ok {
		b.GPS = &c
	}
	if alt, ok := r.Altitude(t); ok {
		b.Altitude = &alt
	}
	return b
}

// FileType returns the file type extension, such as "jpg".
func (r *Resolver) FileType(t Tree) (string, bool) {
	return r.firstText(t, "file_type", fileTypePaths)
}

// MIMEType returns the MIME type, such as "image/jpeg".
func (r *Resolver) MIMEType(t Tree) (string, bool) {
	return r.firstText(t, "mime_type", mimeTypePaths)
}

// Dimensions returns width and height from the composite image size.
// Fractional sizes, as reported for some vector formats, are rejected.
func (r *Resolver) Dimensions(t Tree) (Dimensions, bool) {
	if rec, ok := t.At(imageSizePath); ok {
		if s, ok := rec.Raw(); ok {
			if d, ok := parseImageSize(s); ok {
				return d, true
			}
		}
	}
	r.absent("dimensions", imageSizePath)
	return Dimensions{}, false
}

func parseImageSize(s string) (Dimensions, bool) {
	if strings.Contains(s, ".") {
		return Dimensions{}, false
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == 'x' || r == ' ' || r == '\t'
	})
	if len(parts) != 2 {
		return Dimensions{}, false
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return Dimensions{}, false
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return Dimensions{}, false
	}
	return Dimensions{Width: w, Height: h}, true
}

// Megapixels returns the composite megapixel count.
func (r *Resolver) Megapixels(t Tree) (float64, bool) {
	if rec, ok := t.At(megapixelsPath); ok {
		if f, ok := rec.Number(); ok {
			return f, true
		}
	}
	r.absent("megapixels", megapixelsPath)
	return 0, false
}

// TakenOn returns the first capture time that parses, trying the original
// capture tags before creation, GPS and modification times.
// Present but unparseable values fall through to the next path.
func (r *Resolver) TakenOn(t Tree) (time.Time, bool) {
	for _, p := range takenOnPaths {
		rec, ok := t.At(p)
		if !ok {
			continue
		}
		s, ok := rec.Text()
		if !ok {
			continue
		}
		if ts, ok := r.parser.Parse(s); ok {
			return ts, true
		}
	}
	r.absent("taken_on", takenOnPaths...)
	return time.Time{}, false
}

// GPS returns latitude and longitude from the composite position, or from
// the separate composite coordinates. Both are needed.
func (r *Resolver) GPS(t Tree) (Coordinates, bool) {
	if rec, ok := t.At(gpsPositionPath); ok {
		if s, ok := rec.Raw(); ok {
			if c, ok := parsePosition(s); ok {
				return c, true
			}
		}
	}
	lat, okLat := t.At(gpsLatitudePath)
	lon, okLon := t.At(gpsLongitudePath)
	if okLat && okLon {
		la, ok1 := lat.Number()
		lo, ok2 := lon.Number()
		if ok1 && ok2 {
			return Coordinates{Latitude: la, Longitude: lo}, true
		}
	}
	r.absent("gps", gpsPositionPath, gpsLatitudePath, gpsLongitudePath)
	return Coordinates{}, false
}

func parsePosition(s string) (Coordinates, bool) {
	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(parts) != 2 {
		return Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: lat, Longitude: lon}, true
}

// Altitude returns the composite altitude in meters. Negative values are
// below sea level.
func (r *Resolver) Altitude(t Tree) (float64, bool) {
	if rec, ok := t.At(gpsAltitudePath); ok {
		if f, ok := rec.Number(); ok {
			return f, true
		}
	}
	r.absent("gps_altitude", gpsAltitudePath)
	return 0, false
}

// Camera returns what was found of the camera identity. Each field is
// resolved on its own.
func (r *Resolver) Camera(t Tree) Camera {
	var c Camera
	c.Make, _ = r.firstText(t, "camera_make", cameraMakePaths)
	c.Model, _ = r.firstText(t, "camera_model", cameraModelPaths)
	c.SerialNumber, _ = r.firstText(t, "camera_serial_number", cameraSerialPaths)
	return c
}

// Lens returns what was found of the lens identity. The position is guessed
// from the lens name, as phones name their lenses "... back camera ...".
func (r *Resolver) Lens(t Tree) Lens {
	var l Lens
	l.Make, _ = r.firstText(t, "lens_make", lensMakePaths)
	l.Name, _ = r.firstText(t, "lens_name", lensNamePaths)
	l.SerialNumber, _ = r.firstText(t, "lens_serial_number", lensSerialPaths)
	l.Position = lensPosition(l.Name)
	return l
}

func lensPosition(name string) LensPosition {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, " front "):
		return LensFront
	case strings.Contains(name, " back "):
		return LensBack
	default:
		return ""
	}
}

func (r *Resolver) firstText(t Tree, attr string, paths []Path) (string, bool) {
	for _, p := range paths {
		rec, ok := t.At(p)
		if !ok {
			continue
		}
		if s, ok := rec.Text(); ok && s != "" {
			return s, true
		}
	}
	r.absent(attr, paths...)
	return "", false
}

func (r *Resolver) absent(attr string, paths ...Path) {
	if ce := r.log.Check(zap.DebugLevel, "attribute not resolved"); ce != nil {
		tried := make([]string, len(paths))
		for i, p := range paths {
			tried[i] = p.String()
		}
		ce.Write(timestamp.EventPartialAttribute.Field(),
			zap.String("attribute", attr),
			zap.Strings("paths", tried))
	}
}
