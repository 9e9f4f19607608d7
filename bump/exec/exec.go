// Package exec runs external tools (git, dotnet, az) and
// captures their combined output.
package exec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	oe "os/exec"
	"strings"
)

// CommandError reports an external tool that started but
// exited unsuccessfully. Output holds everything the tool
// wrote to stdout and stderr.
type CommandError struct {
	Name   string
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf(
		"%s %s: %v",
		e.Name, strings.Join(e.Args, " "), e.Err,
	)
}

func (e *CommandError) Unwrap() error { return e.Err }

// MissingToolError reports an executable that could not be
// found on PATH.
type MissingToolError struct {
	Name string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("%s is not installed or not on PATH", e.Name)
}

func (e *MissingToolError) Unwrap() error { return e.Err }

// Runner executes a command and returns its combined output.
// Ex satisfies it; tests substitute recorders.
type Runner func(dir string, name string, arg ...string) (string, error)

var _ Runner = Ex

// Ex executes the named command in the given directory and
// returns combined stdout+stderr output. Pass empty dir to
// use the current working directory. The call blocks until
// the command exits.
func Ex(
	dir string,
	name string,
	arg ...string,
) (string, error) {
	slog.Debug(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
		"dir", dir,
	)

	cmd := oe.CommandContext(context.Background(), name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.CombinedOutput()
	out := string(by)

	slog.Debug("output", "result", out)

	if err == nil {
		return out, nil
	}

	if errors.Is(err, oe.ErrNotFound) {
		return out, &MissingToolError{Name: name, Err: err}
	}

	return out, &CommandError{
		Name:   name,
		Args:   arg,
		Output: out,
		Err:    err,
	}
}

// Lines splits command output into its non-empty lines.
func Lines(out string) []string {
	var lines []string

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		lines = append(lines, line)
	}

	return lines
}
