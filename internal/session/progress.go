package session

import (
	"fmt"
	"io"
	"time"
)

const maxProgressDots = 10

// progress prints a message followed by a dot per tick until stopped. It is
// purely cosmetic: the work it accompanies runs on the caller's goroutine.
type progress struct {
	stop chan struct{}
	done chan struct{}
}

// startProgress starts printing msg to w. An interval <= 0 prints nothing.
func startProgress(w io.Writer, msg string, interval time.Duration) *progress {
	p := &progress{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	if interval <= 0 {
		close(p.done)
		return p
	}

	go func() {
		defer close(p.done)
		fmt.Fprint(w, msg)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for dots := 0; dots < maxProgressDots; dots++ {
			select {
			case <-p.stop:
				fmt.Fprintln(w, " done.")
				return
			case <-ticker.C:
				fmt.Fprint(w, ".")
			}
		}
		<-p.stop
		fmt.Fprintln(w, " done.")
	}()

	return p
}

// Stop stops the indicator and waits for it to finish writing. Stop must be
// called exactly once.
func (p *progress) Stop() {
	close(p.stop)
	<-p.done
}
