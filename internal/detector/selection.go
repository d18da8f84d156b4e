package detector

import (
	"cmp"
	"image"
	"slices"

	"github.com/AinsleeWang/smart-doc-scan/internal/utils"
)

type candidate struct {
	pts  []utils.Point
	area float64
}

// selectDocument picks the largest contour and reduces it to four corners.
// Contours are in image coordinates relative to a w x h grid at the origin.
func selectDocument(contours [][]image.Point, w, h int, cfg Config) Result {
	res := Result{Status: NotFound, ImageWidth: w, ImageHeight: h, ContourCount: len(contours)}
	if len(contours) == 0 {
		return res
	}

	cands := make([]candidate, len(contours))
	for i, c := range contours {
		pts := utils.Points(c)
		cands[i] = candidate{pts: pts, area: utils.ContourArea(pts)}
	}
	slices.SortStableFunc(cands, func(a, b candidate) int { return cmp.Compare(b.area, a.area) })

	largest := cands[0]
	res.ContourArea = largest.area
	if largest.area < cfg.MinAreaFraction*float64(w)*float64(h) {
		return res
	}

	eps := cfg.ApproxEpsilonFraction * utils.ArcLength(largest.pts, true)
	if approx := utils.ApproxPolyDP(largest.pts, eps); len(approx) == 4 {
		for i, p := range approx {
			res.Corners[i] = p.Round()
		}
		res.Source = SourcePolygon
	} else {
		bounds := image.Rect(0, 0, w, h)
		for i, p := range utils.MinimumAreaRectangle(largest.pts) {
			res.Corners[i] = utils.ClampPoint(p.Trunc(), bounds)
		}
		res.Source = SourceMinAreaRect
	}
	res.Status = Found
	return res
}

// cannyThresholds derives the hysteresis thresholds from the median intensity.
func cannyThresholds(median float64, cfg Config) (float64, float64) {
	lower := float64(int(max(0, min(255, cfg.CannyLowerRatio*median))))
	upper := float64(int(max(0, min(255, cfg.CannyUpperRatio*median))))
	return lower, upper
}
