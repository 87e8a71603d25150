package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBar_QuietWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBarTo(&buf, 10, true)
	bar.Report(5)
	bar.Finish(time.Second)
	bar.Close()

	assert.Empty(t, buf.String())
}

func TestBar_ZeroTotalIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBarTo(&buf, 0, false)
	bar.Report(1)
	bar.Close()

	assert.Empty(t, buf.String())
}

func TestBar_ReportAndFinish(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBarTo(&buf, 4, false)
	bar.Report(2)
	bar.Finish(1500 * time.Millisecond)
	bar.Close()

	out := buf.String()
	assert.Contains(t, out, "  0%")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "1.5s (4 requests)")
	assert.Contains(t, out, "\033[?25h")
}

func TestBar_SkipsUnchangedPercent(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBarTo(&buf, 1000, false)
	bar.Report(1)
	before := buf.Len()
	bar.Report(2) // still 0%
	assert.Equal(t, before, buf.Len())
}
