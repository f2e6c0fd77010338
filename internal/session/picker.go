// Package session reads user actions for a long-running `pl session`.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/conn-castle/pio-layer/internal/messages"
	"github.com/conn-castle/pio-layer/internal/orchestrator"
	"github.com/conn-castle/pio-layer/internal/terminal"
)

// ErrInvalidInput marks input that does not name an action. The session
// reports it and keeps reading.
var ErrInvalidInput = errors.New(messages.SessionInvalidInput)

// quitChoice ends the session from the picker.
const quitChoice = "quit"

// Picker returns the next action. It returns io.EOF when the user is done.
type Picker interface {
	Next(ctx context.Context) (orchestrator.Action, error)
}

// HuhPicker shows an action menu in the terminal.
type HuhPicker struct {
	isTerminal func() bool
	actions    []orchestrator.Action
	choice     string
}

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhPicker returns a picker offering actions.
func NewHuhPicker(actions []orchestrator.Action) *HuhPicker {
	return &HuhPicker{isTerminal: terminal.IsInteractive, actions: actions}
}

// pickerKeyMap makes esc end the session as well as ctrl+c.
func pickerKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "end session"))
	km.Select.Filter.SetEnabled(false)
	return km
}

// Next runs the menu once. The previous choice stays selected.
func (p *HuhPicker) Next(ctx context.Context) (orchestrator.Action, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	checker := p.isTerminal
	if checker == nil {
		checker = terminal.IsInteractive
	}
	if !checker() {
		return "", errors.New(messages.SessionRequiresTerminal)
	}

	opts := make([]huh.Option[string], 0, len(p.actions)+1)
	for _, a := range p.actions {
		opts = append(opts, huh.NewOption(string(a), string(a)))
	}
	opts = append(opts, huh.NewOption(quitChoice, quitChoice))
	if p.choice == "" && len(p.actions) > 0 {
		p.choice = string(p.actions[0])
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(messages.SessionPickTitle).
				Options(opts...).
				Value(&p.choice),
		),
	)
	form.WithKeyMap(pickerKeyMap())
	form.WithProgramOptions(tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	err := runFormFunc(form)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if p.choice == quitChoice {
		return "", io.EOF
	}
	return orchestrator.ParseAction(p.choice)
}

// LinePicker reads one action name per line. Blank lines and lines starting
// with '#' are skipped; "quit" or "exit" end the session.
type LinePicker struct {
	scanner *bufio.Scanner
}

// NewLinePicker returns a picker reading from r.
func NewLinePicker(r io.Reader) *LinePicker {
	return &LinePicker{scanner: bufio.NewScanner(r)}
}

// Next returns the next action from the input.
func (p *LinePicker) Next(ctx context.Context) (orchestrator.Action, error) {
	for p.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line := strings.TrimSpace(p.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == quitChoice || line == "exit" {
			return "", io.EOF
		}
		action, err := orchestrator.ParseAction(line)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return action, nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Runner performs actions.
type Runner interface {
	Run(ctx context.Context, action orchestrator.Action) error
}

// Loop feeds actions from picker to runner until the picker is exhausted or
// ctx ends. Action failures and invalid input go to report and do not stop
// the loop.
func Loop(ctx context.Context, picker Picker, runner Runner, report func(action orchestrator.Action, err error)) error {
	if report == nil {
		report = func(orchestrator.Action, error) {}
	}
	for {
		action, err := picker.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, ErrInvalidInput) {
			report("", err)
			continue
		}
		if err != nil {
			return err
		}
		if err := runner.Run(ctx, action); err != nil {
			report(action, err)
		}
	}
}
