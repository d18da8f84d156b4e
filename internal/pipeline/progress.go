package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives batch progress. ForEach calls it from a single
// collector goroutine.
type ProgressCallback interface {
	OnStart(total int)
	// OnProgress follows every finished item, failed or not.
	OnProgress(current, total int)
	OnComplete()
	// OnError precedes the OnProgress of a failed item.
	OnError(index int, err error)
}

// NoOpProgressCallback discards every update.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)         {}
func (NoOpProgressCallback) OnProgress(int, int) {}
func (NoOpProgressCallback) OnComplete()         {}
func (NoOpProgressCallback) OnError(int, error)  {}

// progressSnapshot is the state of a run after some items finished.
type progressSnapshot struct {
	done, total int
	elapsed     time.Duration
}

func (s progressSnapshot) percent() float64 {
	if s.total <= 0 {
		return 0
	}
	return 100 * float64(s.done) / float64(s.total)
}

// rate is finished images per second, zero before the first one.
func (s progressSnapshot) rate() float64 {
	if s.done <= 0 || s.elapsed <= 0 {
		return 0
	}
	return float64(s.done) / s.elapsed.Seconds()
}

// remaining extrapolates the time left from the average so far.
func (s progressSnapshot) remaining() time.Duration {
	if s.done <= 0 || s.done >= s.total {
		return 0
	}
	return time.Duration(float64(s.elapsed) / float64(s.done) * float64(s.total-s.done))
}

// ConsoleOptions tune the terminal progress bar.
type ConsoleOptions struct {
	Prefix   string
	BarWidth int           // 40 when zero
	Redraw   time.Duration // minimum time between redraws; the last item always draws
	HideRate bool
	HideETA  bool
}

// ConsoleProgress draws a single self-overwriting progress line.
type ConsoleProgress struct {
	mu       sync.Mutex
	w        io.Writer
	opts     ConsoleOptions
	started  time.Time
	drawn    time.Time
	failures int
}

// NewConsoleProgress writes to w, or stderr when w is nil.
func NewConsoleProgress(w io.Writer, opts ConsoleOptions) *ConsoleProgress {
	if w == nil {
		w = os.Stderr
	}
	if opts.BarWidth <= 0 {
		opts.BarWidth = 40
	}
	return &ConsoleProgress{w: w, opts: opts}
}

func (c *ConsoleProgress) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started, c.drawn, c.failures = time.Now(), time.Time{}, 0
	fmt.Fprintf(c.w, "%s0/%d images\n", c.opts.Prefix, total)
}

func (c *ConsoleProgress) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if current < total && now.Sub(c.drawn) < c.opts.Redraw {
		return
	}
	c.drawn = now
	io.WriteString(c.w, c.render(progressSnapshot{done: current, total: total, elapsed: now.Sub(c.started)}))
}

func (c *ConsoleProgress) OnError(index int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	fmt.Fprintf(c.w, "\n%simage %d: %v\n", c.opts.Prefix, index, err)
}

func (c *ConsoleProgress) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := fmt.Sprintf("\n%sdone in %v", c.opts.Prefix, time.Since(c.started).Round(time.Millisecond))
	if c.failures > 0 {
		line += fmt.Sprintf(", %d failed", c.failures)
	}
	fmt.Fprintln(c.w, line)
}

func (c *ConsoleProgress) render(s progressSnapshot) string {
	if s.total <= 0 {
		return ""
	}
	width := c.opts.BarWidth
	fill := min(width*s.done/s.total, width)

	var b strings.Builder
	b.WriteString("\r" + c.opts.Prefix)
	b.WriteString("[" + strings.Repeat("#", fill) + strings.Repeat(".", width-fill) + "]")
	fmt.Fprintf(&b, " %d/%d %.0f%%", s.done, s.total, s.percent())
	if r := s.rate(); r > 0 && !c.opts.HideRate {
		fmt.Fprintf(&b, " %.1f img/s", r)
	}
	if left := s.remaining(); left > 0 && !c.opts.HideETA {
		fmt.Fprintf(&b, " ~%v left", left.Round(time.Second))
	}
	return b.String()
}

// LogProgress reports a run as structured log records.
type LogProgress struct {
	logger  *slog.Logger
	level   slog.Level
	every   int
	logged  int
	started time.Time
}

// NewLogProgress logs at level every n finished items, and always for the
// last one. A nil logger uses slog.Default.
func NewLogProgress(logger *slog.Logger, level slog.Level, every int) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{logger: logger, level: level, every: max(every, 1)}
}

func (l *LogProgress) OnStart(total int) {
	l.started, l.logged = time.Now(), 0
	l.logger.Log(context.Background(), l.level, "Batch scan started", "images", total)
}

func (l *LogProgress) OnProgress(current, total int) {
	if current != total && current-l.logged < l.every {
		return
	}
	l.logged = current
	s := progressSnapshot{done: current, total: total, elapsed: time.Since(l.started)}
	l.logger.Log(context.Background(), l.level, "Batch scan progress",
		"done", current,
		"images", total,
		"percent", fmt.Sprintf("%.1f", s.percent()),
		"rate", fmt.Sprintf("%.2f", s.rate()),
	)
}

func (l *LogProgress) OnError(index int, err error) {
	l.logger.Warn("Batch scan image failed", "index", index, "error", err)
}

func (l *LogProgress) OnComplete() {
	l.logger.Log(context.Background(), l.level, "Batch scan finished",
		"elapsed", time.Since(l.started).Round(time.Millisecond))
}

// ProgressFanout forwards each update to every callback in order.
type ProgressFanout []ProgressCallback

func (f ProgressFanout) OnStart(total int) {
	for _, cb := range f {
		cb.OnStart(total)
	}
}

func (f ProgressFanout) OnProgress(current, total int) {
	for _, cb := range f {
		cb.OnProgress(current, total)
	}
}

func (f ProgressFanout) OnError(index int, err error) {
	for _, cb := range f {
		cb.OnError(index, err)
	}
}

func (f ProgressFanout) OnComplete() {
	for _, cb := range f {
		cb.OnComplete()
	}
}
