package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay renders "accepted/target" for one listing. On a terminal
// it redraws a single line; otherwise it prints one line per page and a
// final summary so logs stay readable.
type ProgressDisplay struct {
	mu        sync.Mutex
	out       io.Writer
	label     string
	accepted  int
	target    int
	page      int
	startTime time.Time
	live      bool
	width     int
	quiet     bool
}

// NewProgressDisplay creates a display writing to stdout
func NewProgressDisplay(label string, target int) *ProgressDisplay {
	return NewProgressDisplayTo(os.Stdout, label, target)
}

// NewProgressDisplayTo creates a display writing to out
func NewProgressDisplayTo(out io.Writer, label string, target int) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		label:     label,
		target:    target,
		startTime: time.Now(),
		live:      IsTerminal(out),
		width:     Width(out, 100),
		quiet:     IsQuietMode(),
	}
}

// PageStarted notes a new listing page
func (p *ProgressDisplay) PageStarted(page int, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.page = page
	if p.quiet {
		return
	}
	if p.live {
		p.redraw()
		return
	}
	fmt.Fprintf(p.out, "%s page %d %s\n", p.label, page, url)
}

// Update records the accepted count
func (p *ProgressDisplay) Update(accepted, target int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.accepted = accepted
	p.target = target
	if p.live && !p.quiet {
		p.redraw()
	}
}

// Finish prints the final line
func (p *ProgressDisplay) Finish(accepted, target int, reachedTarget bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.accepted = accepted
	p.target = target
	if p.quiet {
		return
	}
	if p.live {
		p.redraw()
		fmt.Fprintln(p.out)
	}

	mark, note := Green("✓"), "target reached"
	if !reachedTarget {
		mark, note = Yellow("•"), "listing ended"
	}
	fmt.Fprintf(p.out, "%s %s %d/%d (%s, %d pages, %s)\n",
		mark, p.label, accepted, target, note, p.page, formatDuration(time.Since(p.startTime)))
}

// Line returns the current progress line without color
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line(false)
}

func (p *ProgressDisplay) redraw() {
	line := p.line(true)
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", p.width-1), line)
}

func (p *ProgressDisplay) line(color bool) string {
	const barWidth = 20
	progress := 0.0
	if p.target > 0 {
		progress = float64(p.accepted) / float64(p.target)
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * barWidth)
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	label := p.label
	if color {
		label = Cyan(label)
	}
	return fmt.Sprintf("%s [%s] %d/%d • page %d", label, bar, p.accepted, p.target, p.page)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
