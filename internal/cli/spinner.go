package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a waiting message on w until stopped.
type spinner struct {
	w       io.Writer
	message string
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// startSpinner starts animating message on w.
func startSpinner(w io.Writer, message string) *spinner {
	s := &spinner{
		w:       w,
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.done:
			fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
			return
		case <-ticker.C:
			frame := spinnerFrames[i%len(spinnerFrames)]
			fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
		}
	}
}

// stop clears the spinner line and waits for the animation to end. It is
// safe to call more than once.
func (s *spinner) stop() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}
