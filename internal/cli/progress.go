package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/docker/go-units"
	"github.com/moby/imagestream/api/types/image"
)

// progressPrinter renders image progress records as plain lines. A line
// is only printed when it differs from the previous line for the same
// layer, so byte counters that advance within the same size bucket do not
// flood the output.
type progressPrinter struct {
	out    io.Writer
	action string
	now    func() time.Time

	started time.Time
	last    map[string]string
}

func newProgressPrinter(out io.Writer, action string) *progressPrinter {
	return &progressPrinter{out: out, action: action, now: time.Now}
}

func (p *progressPrinter) OnStart() {
	p.started = p.now()
	p.last = make(map[string]string)
}

func (p *progressPrinter) print(ev image.ProgressEvent) error {
	line := formatProgress(ev)
	if line == "" {
		return nil
	}
	if ev.ID != "" {
		if p.last[ev.ID] == line {
			return nil
		}
		p.last[ev.ID] = line
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

func (p *progressPrinter) OnFinish() {
	_, _ = fmt.Fprintf(p.out, "%s finished in %s\n", p.action, units.HumanDuration(p.now().Sub(p.started)))
}

func formatProgress(ev image.ProgressEvent) string {
	line := ev.Status
	if ev.ID != "" {
		line = ev.ID + ": " + line
	}
	if d := ev.ProgressDetail; d != nil && d.Total > 0 && !d.HideCounts {
		if d.Units == "" || d.Units == "bytes" {
			line += " " + units.HumanSize(float64(d.Current)) + "/" + units.HumanSize(float64(d.Total))
		} else {
			line += fmt.Sprintf(" %d/%d %s", d.Current, d.Total, d.Units)
		}
	}
	return line
}

// progressListener adapts a progressPrinter to the event type of a
// specific operation.
type progressListener[E any] struct {
	*progressPrinter
	progress func(E) image.ProgressEvent
}

func (l progressListener[E]) OnUpdate(ev E) error {
	return l.print(l.progress(ev))
}

func pullProgress(out io.Writer) progressListener[image.PullEvent] {
	return progressListener[image.PullEvent]{
		progressPrinter: newProgressPrinter(out, "Pull"),
		progress:        func(ev image.PullEvent) image.ProgressEvent { return ev.ProgressEvent },
	}
}

func pushProgress(out io.Writer) progressListener[image.PushEvent] {
	return progressListener[image.PushEvent]{
		progressPrinter: newProgressPrinter(out, "Push"),
		progress:        func(ev image.PushEvent) image.ProgressEvent { return ev.ProgressEvent },
	}
}
