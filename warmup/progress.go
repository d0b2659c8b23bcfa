package warmup

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker renders warm-up progress as one line that is rewritten in
// place with a carriage return. Calls made before Start are ignored.
type ProgressTracker struct {
	mu    sync.Mutex
	out   io.Writer
	total int
	every int

	done     int
	reported int
	began    time.Time
	running  bool
}

// NewProgressTracker returns a tracker over total transactions that redraws
// after every reportInterval transactions. A nil writer discards output.
func NewProgressTracker(out io.Writer, total, reportInterval int) *ProgressTracker {
	if out == nil {
		out = io.Discard
	}
	return &ProgressTracker{out: out, total: total, every: max(reportInterval, 1)}
}

// Start zeroes the counters and records the start time.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	p.began, p.running = time.Now(), true
	p.done, p.reported = 0, 0
	p.mu.Unlock()
}

// Update sets the number of transactions handled so far.
func (p *ProgressTracker) Update(done int) {
	p.step(func(int) int { return done })
}

// Increment records delta more handled transactions.
func (p *ProgressTracker) Increment(delta int) {
	p.step(func(cur int) int { return cur + delta })
}

func (p *ProgressTracker) step(next func(int) int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = min(next(p.done), p.total)
	if p.done-p.reported >= p.every {
		p.draw()
		p.reported = p.done
	}
}

// Finish draws the final 100% line and terminates it with a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.done = p.total
	p.draw()
	fmt.Fprintln(p.out)
}

// Elapsed reports the time since Start; zero if never started.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return 0
	}
	return time.Since(p.began)
}

func (p *ProgressTracker) draw() {
	var pct, perSec float64
	if p.total > 0 {
		pct = 100 * float64(p.done) / float64(p.total)
	}
	if secs := time.Since(p.began).Seconds(); secs > 0 {
		perSec = float64(p.done) / secs
	}
	fmt.Fprintf(p.out, "\rWarming: %d/%d (%.1f%%) - %.1f transactions/s", p.done, p.total, pct, perSec)
}
