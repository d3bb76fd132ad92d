// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// Prompter asks the user for input.
type Prompter interface {
	// Input prompts for a required line of text.
	Input(label, defaultValue string) (string, error)
	// Password prompts for a secret without echoing it.
	Password(label string) (string, error)
	// Confirm asks a yes/no question.
	Confirm(label string, defaultYes bool) (bool, error)
}

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt errors to ErrAborted for consistent handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Terminal prompts on a terminal using promptui. Nil streams default to
// the process's stdin and stdout.
type Terminal struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// NewTerminal returns a Terminal bound to stdin and stdout.
func NewTerminal() *Terminal {
	return &Terminal{}
}

func required(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

// Input implements Prompter.
func (t *Terminal) Input(label, defaultValue string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: required,
		Stdin:    t.Stdin,
		Stdout:   t.Stdout,
	}
	result, err := p.Run()
	return strings.TrimSpace(result), wrapError(err)
}

// Password implements Prompter. The input is masked.
func (t *Terminal) Password(label string) (string, error) {
	p := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: required,
		Stdin:    t.Stdin,
		Stdout:   t.Stdout,
	}
	result, err := p.Run()
	return result, wrapError(err)
}

// Confirm implements Prompter. Ctrl+C yields ErrAborted, "n" yields false.
func (t *Terminal) Confirm(label string, defaultYes bool) (bool, error) {
	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}

	p := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, defaultStr),
		IsConfirm: true,
		Stdin:     t.Stdin,
		Stdout:    t.Stdout,
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrAborted
		}
		// promptui returns ErrAbort for anything but "y".
		if errors.Is(err, promptui.ErrAbort) {
			if result == "" {
				return defaultYes, nil
			}
			return false, nil
		}
		return false, wrapError(err)
	}

	answer := strings.ToLower(strings.TrimSpace(result))
	return answer == "y" || answer == "yes", nil
}

// ConfirmWithForce returns true immediately if force is true,
// otherwise prompts for confirmation.
func ConfirmWithForce(p Prompter, label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return p.Confirm(label, false)
}
