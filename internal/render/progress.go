package render

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// progress renders a single-line activity indicator. At most one is
// active per renderer; starting a new scope stops the previous one.
type progress struct {
	out     io.Writer
	label   string
	animate bool
	done    chan struct{}
	stopped chan struct{}
}

func newProgress(out io.Writer, label string, animate bool) *progress {
	p := &progress{
		out:     out,
		label:   label,
		animate: animate,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if !animate {
		fmt.Fprintln(out, dimStyle.Render("… "+label))
		close(p.stopped)
		return p
	}
	go p.spin()
	return p
}

func (p *progress) spin() {
	defer close(p.stopped)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-p.done:
			p.clear()
			return
		case <-ticker.C:
			fmt.Fprintf(p.out, "\r%s %s", spinnerFrames[frame%len(spinnerFrames)], p.label)
			frame++
		}
	}
}

func (p *progress) clear() {
	fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", len(p.label)+2))
}

func (p *progress) stop() {
	if p.animate {
		close(p.done)
	}
	<-p.stopped
}
