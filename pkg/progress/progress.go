// Package progress provides a console progress bar
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Bar displays and updates a progress bar for a fixed number of requests
type Bar struct {
	out         io.Writer
	blockCount  int
	total       int
	lastPercent int
	startTime   time.Time
	currentText string
	mutex       sync.Mutex
	done        bool
	quiet       bool
}

// NewBar creates a progress bar on stdout for total requests
func NewBar(total int, quiet bool) *Bar {
	return NewBarTo(os.Stdout, total, quiet)
}

// NewBarTo creates a progress bar that writes to out
func NewBarTo(out io.Writer, total int, quiet bool) *Bar {
	p := &Bar{
		out:         out,
		blockCount:  50,
		total:       total,
		lastPercent: -1,
		startTime:   time.Now(),
		quiet:       quiet || total <= 0,
	}

	if !p.quiet {
		fmt.Fprint(p.out, "\033[?25l") // Hide cursor
		p.Report(0)
	}

	return p
}

// Report updates the bar with the number of completed requests.
// The bar is redrawn only when the whole percentage changes.
func (p *Bar) Report(completed int) {
	if p.quiet {
		return
	}

	value := float64(completed) / float64(p.total)
	value = max(0, min(1, value))
	percent := int(value * 100)

	p.mutex.Lock()
	if percent == p.lastPercent {
		p.mutex.Unlock()
		return
	}
	p.lastPercent = percent
	p.mutex.Unlock()

	progressBlockCount := int(value * float64(p.blockCount))
	text := fmt.Sprintf(" %3d%% [%s%s] (%d requests)",
		percent,
		strings.Repeat("=", progressBlockCount),
		strings.Repeat(" ", p.blockCount-progressBlockCount),
		completed)

	p.updateText(text)
}

func (p *Bar) updateText(text string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	commonPrefixLength := 0
	commonLength := min(len(p.currentText), len(text))

	for commonPrefixLength < commonLength && text[commonPrefixLength] == p.currentText[commonPrefixLength] {
		commonPrefixLength++
	}

	var outputBuilder strings.Builder
	for i := 0; i < len(p.currentText)-commonPrefixLength; i++ {
		outputBuilder.WriteRune('\b')
	}

	outputBuilder.WriteString(text[commonPrefixLength:])

	overlapCount := len(p.currentText) - len(text)
	if overlapCount > 0 {
		outputBuilder.WriteString(strings.Repeat(" ", overlapCount))
		outputBuilder.WriteString(strings.Repeat("\b", overlapCount))
	}

	fmt.Fprint(p.out, outputBuilder.String())
	p.currentText = text
}

// Finish draws the completed bar with the elapsed time
func (p *Bar) Finish(elapsed time.Duration) {
	if p.quiet {
		return
	}

	text := fmt.Sprintf(" 100%% [%s] %.1fs (%d requests)",
		strings.Repeat("=", p.blockCount),
		elapsed.Seconds(),
		p.total)

	p.updateText(text)
	fmt.Fprintln(p.out)
}

// Close restores the cursor
func (p *Bar) Close() {
	if p.quiet {
		return
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.done {
		p.done = true
		fmt.Fprint(p.out, "\033[?25h") // Show cursor
	}
}
