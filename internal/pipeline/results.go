package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
)

// ScanReport is the serialisable outcome of scanning one input.
type ScanReport struct {
	File           string                `json:"file,omitempty" yaml:"file,omitempty"`
	Detection      detector.Report       `json:"detection" yaml:"detection"`
	OrderedCorners []detector.CornerJSON `json:"ordered_corners,omitempty" yaml:"ordered_corners,omitempty"`
	OutputWidth    int                   `json:"output_width,omitempty" yaml:"output_width,omitempty"`
	OutputHeight   int                   `json:"output_height,omitempty" yaml:"output_height,omitempty"`
	Output         string                `json:"output,omitempty" yaml:"output,omitempty"`
	Error          string                `json:"error,omitempty" yaml:"error,omitempty"`
	Timings        Timings               `json:"timings" yaml:"timings"`
}

// Report converts r into its serialisable form, labelled with file.
func (r *ScanResult) Report(file string) ScanReport {
	rep := ScanReport{File: file}
	if r == nil {
		return rep
	}
	rep.Detection = r.Detection.Report()
	rep.Timings = r.Timings
	if r.Document != nil {
		b := r.Document.Bounds()
		rep.OutputWidth, rep.OutputHeight = b.Dx(), b.Dy()
		for _, p := range r.Corners {
			rep.OrderedCorners = append(rep.OrderedCorners, detector.CornerJSON{X: int(p.X), Y: int(p.Y)})
		}
	}
	return rep
}

// FormatReports renders reports as text, json, yaml or csv.
func FormatReports(reports []ScanReport, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return ToText(reports), nil
	case "json":
		return ToJSON(reports)
	case "yaml", "yml":
		return ToYAML(reports)
	case "csv":
		return ToCSV(reports)
	}
	return "", fmt.Errorf("unsupported output format %q", format)
}

// ToJSON serializes reports to pretty JSON. A single report is written as an
// object, several as an array.
func ToJSON(reports []ScanReport) (string, error) {
	var v any = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}

// ToYAML serializes reports to YAML.
func ToYAML(reports []ScanReport) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ToText renders one block per report.
func ToText(reports []ScanReport) string {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		if r.File != "" {
			fmt.Fprintf(&b, "# %s\n", r.File)
		}
		if r.Error != "" {
			fmt.Fprintf(&b, "error: %s\n", r.Error)
			continue
		}
		d := r.Detection
		fmt.Fprintf(&b, "status: %s\n", d.Status)
		if d.Status != detector.Found {
			continue
		}
		fmt.Fprintf(&b, "source: %s\n", d.Source)
		fmt.Fprintf(&b, "area: %.0f (%.1f%%)\n", d.ContourArea, d.AreaRatio*100)
		for j, c := range d.Corners {
			fmt.Fprintf(&b, "corner %d: %d,%d\n", j, c.X, c.Y)
		}
		if r.OutputWidth > 0 {
			fmt.Fprintf(&b, "output: %dx%d", r.OutputWidth, r.OutputHeight)
			if r.Output != "" {
				fmt.Fprintf(&b, " %s", r.Output)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ToCSV writes one row per report with the four corners flattened.
func ToCSV(reports []ScanReport) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"file", "status", "source", "area_ratio",
		"x0", "y0", "x1", "y1", "x2", "y2", "x3", "y3",
		"output_width", "output_height", "output", "error"}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, r := range reports {
		row := []string{
			r.File,
			r.Detection.Status.String(),
			r.Detection.Source.String(),
			strconv.FormatFloat(r.Detection.AreaRatio, 'f', 4, 64),
		}
		for j := range 4 {
			if j < len(r.Detection.Corners) {
				c := r.Detection.Corners[j]
				row = append(row, strconv.Itoa(c.X), strconv.Itoa(c.Y))
			} else {
				row = append(row, "", "")
			}
		}
		row = append(row, strconv.Itoa(r.OutputWidth), strconv.Itoa(r.OutputHeight), r.Output, r.Error)
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// ValidateScanResult performs consistency checks on a result.
func ValidateScanResult(res *ScanResult) error {
	if res == nil {
		return errors.New("nil result")
	}
	d := res.Detection
	if d.ImageWidth <= 0 || d.ImageHeight <= 0 {
		return fmt.Errorf("invalid image size %dx%d", d.ImageWidth, d.ImageHeight)
	}
	if !d.Found() {
		if res.Document != nil {
			return errors.New("document present without a detection")
		}
		return nil
	}
	// Corners are checked against an origin-anchored frame.
	bounds := image.Rect(0, 0, d.ImageWidth, d.ImageHeight)
	for i, p := range d.Corners {
		if !p.In(bounds) {
			return fmt.Errorf("corner %d at %v outside %v", i, p, bounds)
		}
	}
	return nil
}
