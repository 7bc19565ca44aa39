package cli

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"
)

// Prompter asks the user to pick one of options.
type Prompter interface {
	Select(message string, options []string, fallback string) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(message string, options []string, fallback string) (string, error)

// Select implements Prompter.
func (fn PrompterFunc) Select(message string, options []string, fallback string) (string, error) {
	return fn(message, options, fallback)
}

// ErrPromptAborted is returned when the user interrupts a prompt.
var ErrPromptAborted = errors.New("prompt aborted")

type surveyPrompter struct{}

func (surveyPrompter) Select(message string, options []string, fallback string) (string, error) {
	prompt := &survey.Select{Message: message, Options: options}
	if fallback != "" {
		prompt.Default = fallback
	}
	var out string
	if err := survey.AskOne(prompt, &out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", ErrPromptAborted
		}
		return "", err
	}
	return out, nil
}

// stdinIsTerminal reports whether prompts can be shown.
func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
