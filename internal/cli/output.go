package cli

import (
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries a process exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Plain errors map to
// ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope for --format json.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// JSON reports whether the formatter emits JSON envelopes.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data. In text mode text is written verbatim.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.JSON() {
		return f.write(Response{Status: "ok", Data: data})
	}
	_, err := io.WriteString(f.Writer, text)
	return err
}

// Failure writes data describing a failed command and returns an ExitError
// so the process exits non-zero.
func (f *OutputFormatter) Failure(code int, message string, data any, text string) error {
	if f.JSON() {
		if err := f.write(Response{Status: "error", Data: data, Error: message}); err != nil {
			return err
		}
	} else if text != "" {
		if _, err := io.WriteString(f.Writer, text); err != nil {
			return err
		}
	}
	return &ExitError{Code: code, Message: message}
}

func (f *OutputFormatter) write(resp Response) error {
	payload, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	_, err = f.Writer.Write(append(payload, '\n'))
	return err
}
