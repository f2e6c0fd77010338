package host

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/conn-castle/pio-layer/internal/messages"
)

// TerminalNotifier prints notifications and output channels to a terminal.
// Info goes to Out in yellow, errors to Err in red.
type TerminalNotifier struct {
	Out io.Writer
	Err io.Writer

	mu sync.Mutex
}

// NewTerminalNotifier returns a notifier writing to out and errOut.
func NewTerminalNotifier(out io.Writer, errOut io.Writer) *TerminalNotifier {
	return &TerminalNotifier{Out: out, Err: errOut}
}

// Info prints an informational message.
func (n *TerminalNotifier) Info(msg string) {
	n.println(n.Out, color.YellowString(msg))
}

// Error prints an error. Modal errors are framed so they stand out from
// task output.
func (n *TerminalNotifier) Error(msg string, modal bool) {
	if !modal {
		n.println(n.Err, color.RedString(msg))
		return
	}
	bold := color.New(color.FgRed, color.Bold)
	n.println(n.Err, bold.Sprint(messages.NotifierModalHeader))
	n.println(n.Err, color.RedString(msg))
	n.println(n.Err, bold.Sprint(messages.NotifierModalFooter))
}

// Status prints a short progress message.
func (n *TerminalNotifier) Status(msg string) {
	n.println(n.Out, color.CyanString(messages.NotifierStatusFmt, msg))
}

// OutputChannel returns a named channel. Lines are buffered until Show and
// written straight through afterwards.
func (n *TerminalNotifier) OutputChannel(name string) *OutputChannel {
	return &OutputChannel{name: name, notifier: n}
}

func (n *TerminalNotifier) println(w io.Writer, s string) {
	if w == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintln(w, s)
}

// OutputChannel is a named log pane.
type OutputChannel struct {
	name     string
	notifier *TerminalNotifier

	mu      sync.Mutex
	shown   bool
	pending []string
}

// Name returns the channel name.
func (c *OutputChannel) Name() string {
	return c.name
}

// AppendLine adds one line to the channel.
func (c *OutputChannel) AppendLine(line string) {
	c.mu.Lock()
	if !c.shown {
		c.pending = append(c.pending, line)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.write(line)
}

// Show reveals the channel and flushes buffered lines.
func (c *OutputChannel) Show() {
	c.mu.Lock()
	if c.shown {
		c.mu.Unlock()
		return
	}
	c.shown = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.notifier.println(c.notifier.Out, color.New(color.Bold).Sprintf(messages.NotifierChannelHeaderFmt, c.name))
	for _, line := range pending {
		c.write(line)
	}
}

func (c *OutputChannel) write(line string) {
	c.notifier.println(c.notifier.Out, fmt.Sprintf(messages.NotifierChannelLineFmt, c.name, line))
}
