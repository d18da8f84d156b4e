package pipeline

import (
	"sync/atomic"
	"time"
)

// Profiler aggregates counters and stage timers across scans. It is safe for
// concurrent use.
type Profiler struct {
	detectionNs atomic.Int64
	rectifyNs   atomic.Int64
	images      atomic.Int64
	found       atomic.Int64
}

// ProfileSnapshot is a point-in-time copy of a Profiler.
type ProfileSnapshot struct {
	Images            int64         `json:"images"`
	Found             int64         `json:"found"`
	DetectionTotal    time.Duration `json:"detection_total_ns"`
	RectifyTotal      time.Duration `json:"rectify_total_ns"`
	DetectionPerImage time.Duration `json:"detection_per_image_ns"`
}

// Record adds one scan to the totals.
func (p *Profiler) Record(detNs, rectNs int64, found bool) {
	p.detectionNs.Add(detNs)
	p.rectifyNs.Add(rectNs)
	p.images.Add(1)
	if found {
		p.found.Add(1)
	}
}

// Snapshot returns the cumulative counters.
func (p *Profiler) Snapshot() ProfileSnapshot {
	s := ProfileSnapshot{
		Images:         p.images.Load(),
		Found:          p.found.Load(),
		DetectionTotal: time.Duration(p.detectionNs.Load()),
		RectifyTotal:   time.Duration(p.rectifyNs.Load()),
	}
	if s.Images > 0 {
		s.DetectionPerImage = s.DetectionTotal / time.Duration(s.Images)
	}
	return s
}
