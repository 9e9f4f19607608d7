// Package prompt asks the user to pick one item from a list.
//
// Menu renders an interactive terminal list; Scripted replays
// fixed answers and is meant for tests and non-interactive
// runs.
package prompt

import (
	"errors"
	"fmt"
)

// ErrQuit is returned when the user leaves a menu without
// choosing. Callers treat it as a clean exit.
var ErrQuit = errors.New("quit")

// ErrNoItems is returned when there is nothing to choose from.
var ErrNoItems = errors.New("nothing to choose from")

// Chooser picks one of items and returns its index.
type Chooser interface {
	Choose(title string, items []string) (int, error)
}

// Quit is the Scripted answer that simulates leaving a menu.
const Quit = -1

// Scripted answers every Choose call with the next value of
// Answers. Quit yields ErrQuit.
type Scripted struct {
	Answers []int

	// Asked records the title of every question.
	Asked []string
}

var _ Chooser = (*Scripted)(nil)

// Choose consumes the next answer.
func (s *Scripted) Choose(title string, items []string) (int, error) {
	const errCtx = "scripted choice"

	s.Asked = append(s.Asked, title)

	if len(items) == 0 {
		return Quit, ErrNoItems
	}

	if len(s.Answers) == 0 {
		return Quit, fmt.Errorf("%s: no answer left for %q", errCtx, title)
	}

	answer := s.Answers[0]
	s.Answers = s.Answers[1:]

	if answer == Quit {
		return Quit, ErrQuit
	}

	if answer < 0 || answer >= len(items) {
		return Quit, fmt.Errorf(
			"%s: answer %d out of range for %d items",
			errCtx, answer, len(items),
		)
	}

	return answer, nil
}
