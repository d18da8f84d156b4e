package pipeline

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressSnapshot(t *testing.T) {
	s := progressSnapshot{done: 4, total: 10, elapsed: 2 * time.Second}
	assert.InDelta(t, 40.0, s.percent(), 1e-9)
	assert.InDelta(t, 2.0, s.rate(), 1e-9)
	assert.Equal(t, 3*time.Second, s.remaining())

	assert.Zero(t, progressSnapshot{total: 10, elapsed: time.Second}.rate())
	assert.Zero(t, progressSnapshot{done: 10, total: 10, elapsed: time.Second}.remaining())
	assert.Zero(t, progressSnapshot{}.percent())
}

func TestConsoleProgress(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgress(&buf, ConsoleOptions{Prefix: "Scan: "})

	cb.OnStart(10)
	assert.Contains(t, buf.String(), "Scan: 0/10 images")

	buf.Reset()
	cb.OnProgress(5, 10)
	assert.Contains(t, buf.String(), "5/10 50%")

	buf.Reset()
	cb.OnError(3, assert.AnError)
	assert.Contains(t, buf.String(), "Scan: image 3:")

	buf.Reset()
	cb.OnComplete()
	assert.Contains(t, buf.String(), "Scan: done in")
	assert.Contains(t, buf.String(), ", 1 failed")
}

func TestConsoleProgress_Bar(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgress(&buf, ConsoleOptions{BarWidth: 10, HideRate: true, HideETA: true})

	cb.OnStart(4)
	buf.Reset()
	cb.OnProgress(2, 4)

	out := buf.String()
	assert.Contains(t, out, "[#####.....]")
	assert.NotContains(t, out, "img/s")
	assert.NotContains(t, out, "left")
}

func TestConsoleProgress_RateAndRemaining(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgress(&buf, ConsoleOptions{})

	cb.OnStart(10)
	time.Sleep(5 * time.Millisecond)
	buf.Reset()
	cb.OnProgress(5, 10)

	assert.Contains(t, buf.String(), "img/s")
	assert.Contains(t, buf.String(), "left")
}

func TestConsoleProgress_Redraw(t *testing.T) {
	var buf bytes.Buffer
	cb := NewConsoleProgress(&buf, ConsoleOptions{Redraw: time.Hour})

	cb.OnStart(10)
	buf.Reset()
	cb.OnProgress(1, 10)
	first := buf.Len()
	cb.OnProgress(2, 10)
	assert.Equal(t, first, buf.Len(), "redraw within the interval")

	cb.OnProgress(10, 10)
	assert.Greater(t, buf.Len(), first, "last item draws")
}

func TestLogProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cb := NewLogProgress(logger, slog.LevelInfo, 2)

	cb.OnStart(3)
	cb.OnProgress(1, 3)
	cb.OnProgress(2, 3)
	cb.OnProgress(3, 3)
	cb.OnError(1, assert.AnError)
	cb.OnComplete()

	out := buf.String()
	assert.Contains(t, out, "Batch scan started")
	assert.Equal(t, 2, strings.Count(out, "Batch scan progress"))
	assert.Contains(t, out, "Batch scan image failed")
	assert.Contains(t, out, "Batch scan finished")
}

func TestProgressFanout(t *testing.T) {
	a, b := &recordingProgress{}, &recordingProgress{}
	var cb ProgressCallback = ProgressFanout{a, NoOpProgressCallback{}, b}

	cb.OnStart(2)
	cb.OnProgress(1, 2)
	cb.OnError(0, assert.AnError)
	cb.OnComplete()

	for _, r := range []*recordingProgress{a, b} {
		assert.Equal(t, 2, r.started)
		assert.Equal(t, []int{1}, r.progress)
		assert.Equal(t, []int{0}, r.errors)
		assert.True(t, r.completed)
	}
}
