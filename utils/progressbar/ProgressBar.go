// Package progressbar prints a terminal progress bar for long-running
// training loops.
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar prints progress toward a fixed number of iterations.
// The bar must be managed manually: call Increment once per iteration
// and Display whenever an updated bar should be printed.
type ProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
}

// New returns a new ProgressBar that is width characters wide and
// reaches 100% after max calls to Increment, printing to out.
func New(out io.Writer, width, max int) *ProgressBar {
	return &ProgressBar{
		out:         out,
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Increment increments the internal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Display prints the progress bar, overwriting the previously printed
// bar.
func (p *ProgressBar) Display() {
	p.bar.Reset()
	p.bar.WriteString("|")

	currentProg := p.currentProgress / p.maxProgress * p.width
	for i := 0.0; i < currentProg; i++ {
		p.bar.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		p.bar.WriteString(" ")
	}
	fmt.Fprintf(&p.bar, "| [%.2f%% | elapsed: %v]",
		p.currentProgress/p.maxProgress*100,
		time.Since(p.startTime).Truncate(time.Second))

	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.bar.String())
}

// Close finishes the bar's line so later prints start fresh
func (p *ProgressBar) Close() {
	fmt.Fprintln(p.out)
}
