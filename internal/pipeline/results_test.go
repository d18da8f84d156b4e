package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AinsleeWang/smart-doc-scan/internal/detector"
	"github.com/AinsleeWang/smart-doc-scan/internal/rectify"
	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

func foundResult() *ScanResult {
	return &ScanResult{
		Detection: detector.Result{
			Status:      detector.Found,
			Source:      detector.SourcePolygon,
			Corners:     [4]image.Point{{10, 10}, {90, 10}, {90, 60}, {10, 60}},
			ContourArea: 4000,
			ImageWidth:  100,
			ImageHeight: 80,
		},
		Document: image.NewNRGBA(image.Rect(0, 0, 80, 50)),
		Corners: rectify.Quad{
			utils.Point{X: 10, Y: 10}, utils.Point{X: 90, Y: 10},
			utils.Point{X: 90, Y: 60}, utils.Point{X: 10, Y: 60},
		},
		Timings: Timings{DetectionNs: 5, RectifyNs: 7, TotalNs: 12},
	}
}

func sampleReports() []ScanReport {
	found := foundResult().Report("page.jpg")
	found.Output = "out/enhanced_page.jpg"
	missing := (&ScanResult{Detection: detector.Result{ImageWidth: 50, ImageHeight: 50}}).Report("blank.png")
	failed := ScanReport{File: "broken.png", Error: "decode failed"}
	return []ScanReport{found, missing, failed}
}

func TestScanResult_Report(t *testing.T) {
	rep := foundResult().Report("page.jpg")

	assert.Equal(t, "page.jpg", rep.File)
	assert.Equal(t, detector.Found, rep.Detection.Status)
	assert.Len(t, rep.Detection.Corners, 4)
	assert.Len(t, rep.OrderedCorners, 4)
	assert.Equal(t, 80, rep.OutputWidth)
	assert.Equal(t, 50, rep.OutputHeight)
	assert.InDelta(t, 0.5, rep.Detection.AreaRatio, 1e-9)

	var nilResult *ScanResult
	assert.Equal(t, ScanReport{File: "x"}, nilResult.Report("x"))
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(sampleReports()[:1])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "page.jpg", decoded["file"])
	det := decoded["detection"].(map[string]any)
	assert.Equal(t, "found", det["status"])
	assert.Equal(t, "polygon", det["source"])

	out, err = ToJSON(sampleReports())
	require.NoError(t, err)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 3)
	assert.Equal(t, "decode failed", list[2]["error"])
}

func TestToYAML(t *testing.T) {
	out, err := ToYAML(sampleReports())
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "blank.png", decoded[1]["file"])
	assert.Equal(t, "not_found", decoded[1]["detection"].(map[string]any)["status"])
}

func TestToText(t *testing.T) {
	out := ToText(sampleReports())

	assert.Contains(t, out, "# page.jpg\nstatus: found\nsource: polygon\n")
	assert.Contains(t, out, "corner 0: 10,10\n")
	assert.Contains(t, out, "output: 80x50 out/enhanced_page.jpg\n")
	assert.Contains(t, out, "# blank.png\nstatus: not_found\n")
	assert.Contains(t, out, "# broken.png\nerror: decode failed\n")
}

func TestToCSV(t *testing.T) {
	out, err := ToCSV(sampleReports())
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "file", rows[0][0])
	assert.Len(t, rows[0], 16)
	assert.Equal(t, []string{"page.jpg", "found", "polygon", "0.5000", "10", "10", "90", "10", "90", "60", "10", "60"}, rows[1][:12])
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "decode failed", rows[3][15])
}

func TestFormatReports(t *testing.T) {
	for _, f := range []string{"", "text", "json", "yaml", "yml", "csv", "JSON"} {
		out, err := FormatReports(sampleReports(), f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, out, f)
	}
	_, err := FormatReports(sampleReports(), "xml")
	require.Error(t, err)
}

func TestValidateScanResult(t *testing.T) {
	require.NoError(t, ValidateScanResult(foundResult()))
	require.Error(t, ValidateScanResult(nil))

	bad := foundResult()
	bad.Detection.Corners[1] = image.Pt(100, 10)
	require.Error(t, ValidateScanResult(bad))

	orphan := &ScanResult{Detection: detector.Result{ImageWidth: 10, ImageHeight: 10}, Document: image.NewNRGBA(image.Rect(0, 0, 1, 1))}
	require.Error(t, ValidateScanResult(orphan))

	require.Error(t, ValidateScanResult(&ScanResult{}))
}
