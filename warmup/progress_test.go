package warmup

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_ReportsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1000, 100)
	tracker.Start()

	tracker.Update(50)
	assert.Empty(t, buf.String(), "should not report under the interval")

	tracker.Update(100)
	assert.Contains(t, buf.String(), "100/1000")

	buf.Reset()
	tracker.Increment(250)
	assert.Contains(t, buf.String(), "350/1000")
}

func TestProgressTracker_FinishCompletesLine(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 100)
	tracker.Start()
	tracker.Increment(3)
	tracker.Finish()

	out := buf.String()
	assert.Contains(t, out, "10/10 (100.0%)")
	assert.Contains(t, out, "transactions/s")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)
	tracker.Start()
	tracker.Increment(150)

	assert.Contains(t, buf.String(), "100/100")
	assert.NotContains(t, buf.String(), "150")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0, 10)
	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "0/0 (0.0%)")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Increment(10)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, 5, 1)
	tracker.Start()
	assert.NotPanics(t, func() {
		tracker.Increment(5)
		tracker.Finish()
	})
}
