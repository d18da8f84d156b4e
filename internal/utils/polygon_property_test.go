package utils

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func randomRing(seed int64, n int) []Point {
	pts := make([]Point, n)
	x := uint64(seed)*6364136223846793005 + 1442695040888963407
	for i := range n {
		x = x*6364136223846793005 + 1442695040888963407
		r := 50 + float64(x>>40%100)
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{300 + r*math.Cos(a), 300 + r*math.Sin(a)}
	}
	return pts
}

func TestApproxPolyDP_SubsetProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("simplified vertices are input vertices", prop.ForAll(
		func(seed int64, n int) bool {
			ring := randomRing(seed, n)
			poly := ApproxPolyDP(ring, 0.02*ArcLength(ring, true))
			if len(poly) == 0 || len(poly) > len(ring) {
				return false
			}
			for _, p := range poly {
				found := false
				for _, q := range ring {
					if p == q {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(8, 120),
	))

	properties.TestingRun(t)
}

func TestMinimumAreaRectangle_EnclosesProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rectangle is no larger than the bounding box", prop.ForAll(
		func(seed int64, n int) bool {
			ring := randomRing(seed, n)
			rect := MinimumAreaRectangle(ring)
			bb := BoundingBox(ring)
			return len(rect) == 4 && ContourArea(rect) <= bb.Width()*bb.Height()+1e-6 &&
				ContourArea(rect) >= ContourArea(ConvexHull(ring))-1e-6
		},
		gen.Int64(),
		gen.IntRange(3, 80),
	))

	properties.TestingRun(t)
}
