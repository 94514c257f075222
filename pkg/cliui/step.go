package cliui

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

var spinnerFrames = []rune("⣾⣽⣻⢿⡿⣟⣯⣷")

const spinnerInterval = 80 * time.Millisecond

// Step runs fn under msg and prints one result line with a mark and the
// elapsed time. While fn runs, a spinner is drawn if w is a terminal.
func Step(w io.Writer, msg string, fn func() error) error {
	var stop func()
	if isTerminal(w) {
		stop = spin(w, msg)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if stop != nil {
		stop()
	}
	fmt.Fprintf(w, "\r  %s %s %s\n", Mark(err), msg, StepStyle.Render("("+FormatDuration(elapsed)+")"))
	return err
}

// spin draws frames until the returned func is called. The func returns
// only after the last frame is written.
func spin(w io.Writer, msg string) func() {
	quit := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		t := time.NewTicker(spinnerInterval)
		defer t.Stop()
		for i := 0; ; i++ {
			frame := string(spinnerFrames[i%len(spinnerFrames)])
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(frame), msg)
			select {
			case <-quit:
				return
			case <-t.C:
			}
		}
	}()

	return func() {
		close(quit)
		<-finished
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// FormatDuration renders d as whole milliseconds below a second and as
// tenths of a second above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
