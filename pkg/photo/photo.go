// Package photo assembles the import record of one asset.
package photo

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/g4b1nagy/PhotoTrip/pkg/createdat"
	"github.com/g4b1nagy/PhotoTrip/pkg/exifmeta"
	"github.com/g4b1nagy/PhotoTrip/pkg/scan"
	"github.com/g4b1nagy/PhotoTrip/pkg/timestamp"
)

// Instant is a time that encodes as its canonical text form.
type Instant time.Time

func (i Instant) MarshalJSON() ([]byte, error) {
	return json.Marshal(timestamp.Format(time.Time(i)))
}

// Created is the chosen creation time and where it came from.
type Created struct {
	At     *Instant         `json:"at"`
	Source createdat.Source `json:"source"`
}

// Record is everything imported for one asset. Nil fields were not found.
type Record struct {
	FileName     string           `json:"file_name"`
	FilePath     string           `json:"file_path"`
	FileSize     int64            `json:"file_size"`
	FileAtime    *Instant         `json:"file_atime"`
	FileMtime    *Instant         `json:"file_mtime"`
	FileCtime    *Instant         `json:"file_ctime"`
	FileType     string           `json:"file_type"`
	MIMEType     string           `json:"mime_type"`
	ImageWidth   *int             `json:"image_width"`
	ImageHeight  *int             `json:"image_height"`
	Megapixels   *float64         `json:"megapixels"`
	TakenOn      *Instant         `json:"taken_on"`
	GPSLatitude  *float64         `json:"gps_latitude"`
	GPSLongitude *float64         `json:"gps_longitude"`
	GPSAltitude  *float64         `json:"gps_altitude"`
	Camera       *exifmeta.Camera `json:"camera"`
	Lens         *exifmeta.Lens   `json:"lens"`
	Created      Created          `json:"created"`
	Metadata     exifmeta.Tree    `json:"metadata,omitempty"`
}

// Builder turns scan and attribution results into records.
type Builder struct {
	converter *timestamp.Converter
}

// NewBuilder returns a Builder converting stat times in the reference zone
// of opts. A nil logger discards log output.
func NewBuilder(logger *zap.Logger, opts timestamp.Options) *Builder {
	return &Builder{converter: timestamp.NewConverter(logger, opts)}
}

// Build assembles the record for the file at filePath. The camera is left
// out when none of its fields were found, the lens when it has no name.
func (b *Builder) Build(filePath string, file scan.Record, detailed createdat.DetailedResult) Record {
	attrs := detailed.Attributes

	r := Record{
		FileName:    file.Name,
		FilePath:    filePath,
		FileSize:    file.FileSizeBytes,
		FileAtime:   b.instant(file.Stat.Atime),
		FileMtime:   b.instant(file.Stat.Mtime),
		FileCtime:   b.instant(file.Stat.Ctime),
		FileType:    attrs.FileType,
		MIMEType:    attrs.MIMEType,
		Megapixels:  attrs.Megapixels,
		TakenOn:     instantOf(attrs.TakenOn),
		GPSAltitude: attrs.Altitude,
		Metadata:    detailed.Tree,
	}
	if d := attrs.Dimensions; d != nil {
		r.ImageWidth, r.ImageHeight = &d.Width, &d.Height
	}
	if c := attrs.GPS; c != nil {
		r.GPSLatitude, r.GPSLongitude = &c.Latitude, &c.Longitude
	}
	if !attrs.Camera.Empty() {
		camera := attrs.Camera
		r.Camera = &camera
	}
	if attrs.Lens.Name != "" {
		lens := attrs.Lens
		r.Lens = &lens
	}

	r.Created.Source = detailed.Best.Source
	if !detailed.Best.CreatedAt.IsZero() {
		r.Created.At = instantOf(&detailed.Best.CreatedAt)
	}
	return r
}

func (b *Builder) instant(seconds float64) *Instant {
	t, ok := b.converter.FromEpoch(seconds)
	if !ok {
		return nil
	}
	return instantOf(&t)
}

func instantOf(t *time.Time) *Instant {
	if t == nil {
		return nil
	}
	i := Instant(*t)
	return &i
}
