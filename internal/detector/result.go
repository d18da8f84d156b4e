package detector

import (
	"fmt"
	"image"
)

// Status tells whether a document boundary was found.
type Status int

const (
	NotFound Status = iota
	Found
)

func (s Status) String() string {
	if s == Found {
		return "found"
	}
	return "not_found"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "found":
		*s = Found
	case "not_found":
		*s = NotFound
	default:
		return fmt.Errorf("unknown detection status %q", b)
	}
	return nil
}

// CornerSource records how the four corners were obtained.
type CornerSource int

const (
	SourceNone CornerSource = iota
	// SourcePolygon means the simplified contour had exactly four vertices.
	SourcePolygon
	// SourceMinAreaRect means the corners come from the minimum-area rotated rectangle.
	SourceMinAreaRect
)

func (s CornerSource) String() string {
	switch s {
	case SourcePolygon:
		return "polygon"
	case SourceMinAreaRect:
		return "min_area_rect"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CornerSource) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CornerSource) UnmarshalText(b []byte) error {
	switch string(b) {
	case "polygon":
		*s = SourcePolygon
	case "min_area_rect":
		*s = SourceMinAreaRect
	case "none", "":
		*s = SourceNone
	default:
		return fmt.Errorf("unknown corner source %q", b)
	}
	return nil
}

// Result is the outcome of one detection. Corners are only meaningful when
// Status is Found; their order is unspecified.
type Result struct {
	Status         Status
	Corners        [4]image.Point
	Source         CornerSource
	ContourArea    float64 // area of the largest external contour, 0 without contours
	ImageWidth     int
	ImageHeight    int
	ContourCount   int
	LowerThreshold float64
	UpperThreshold float64
}

// Found reports whether a quadrilateral was detected.
func (r Result) Found() bool { return r.Status == Found }

// Quad returns the corners as a slice, or nil when nothing was found.
func (r Result) Quad() []image.Point {
	if !r.Found() {
		return nil
	}
	return r.Corners[:]
}

// AreaRatio returns the largest contour area relative to the image area.
func (r Result) AreaRatio() float64 {
	if r.ImageWidth == 0 || r.ImageHeight == 0 {
		return 0
	}
	return r.ContourArea / float64(r.ImageWidth*r.ImageHeight)
}

// CornerJSON is the serialised form of one corner.
type CornerJSON struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Report is the structured, serialisable view of a Result.
type Report struct {
	Status       Status       `json:"status" yaml:"status"`
	Corners      []CornerJSON `json:"corners,omitempty" yaml:"corners,omitempty"`
	Source       CornerSource `json:"source" yaml:"source"`
	ContourArea  float64      `json:"contour_area" yaml:"contour_area"`
	AreaRatio    float64      `json:"area_ratio" yaml:"area_ratio"`
	ContourCount int          `json:"contour_count" yaml:"contour_count"`
	Width        int          `json:"width" yaml:"width"`
	Height       int          `json:"height" yaml:"height"`
	CannyLower   float64      `json:"canny_lower" yaml:"canny_lower"`
	CannyUpper   float64      `json:"canny_upper" yaml:"canny_upper"`
}

// Report converts the result into its serialisable form.
func (r Result) Report() Report {
	rep := Report{
		Status:       r.Status,
		Source:       r.Source,
		ContourArea:  r.ContourArea,
		AreaRatio:    r.AreaRatio(),
		ContourCount: r.ContourCount,
		Width:        r.ImageWidth,
		Height:       r.ImageHeight,
		CannyLower:   r.LowerThreshold,
		CannyUpper:   r.UpperThreshold,
	}
	for _, p := range r.Quad() {
		rep.Corners = append(rep.Corners, CornerJSON{X: p.X, Y: p.Y})
	}
	return rep
}
