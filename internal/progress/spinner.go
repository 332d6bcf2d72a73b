package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner shows an animated message while a step runs and replaces it with
// a success or failure line. Without a TTY it prints the lines only.
type Spinner struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	s       *spinner.Spinner
	message string
}

// NewSpinner returns a spinner writing to out.
func NewSpinner(out io.Writer, caps TerminalCapabilities) *Spinner {
	return &Spinner{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Start begins the step. Calling Start on a running spinner restarts it
// with the new message.
func (p *Spinner) Start(message string) {
	p.stop()
	p.message = message

	if !p.caps.IsTTY {
		fmt.Fprintf(p.out, "%s...\n", message)
		return
	}

	p.s = spinner.New(spinner.CharSets[p.symbols.SpinnerSet], spinnerInterval, spinner.WithWriter(p.out))
	p.s.Suffix = " " + message
	p.s.Start()
}

// Success ends the step with a checkmark line.
func (p *Spinner) Success(message string) {
	p.finish(p.symbols.Checkmark, color.FgGreen, message)
}

// Fail ends the step with a failure line.
func (p *Spinner) Fail(message string) {
	p.finish(p.symbols.Failure, color.FgRed, message)
}

func (p *Spinner) finish(symbol string, attr color.Attribute, message string) {
	p.stop()
	if message == "" {
		message = p.message
	}
	if p.caps.SupportsColor {
		symbol = color.New(attr).Sprint(symbol)
	}
	fmt.Fprintf(p.out, "%s %s\n", symbol, message)
}

func (p *Spinner) stop() {
	if p.s != nil {
		p.s.Stop()
		p.s = nil
	}
}
