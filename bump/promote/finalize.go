package promote

import (
	"fmt"
	"log/slog"
)

// CommitMessage is the message of every bump commit.
const CommitMessage = "bumping nugets"

// Publisher is the subset of git.Repo Finalize drives.
type Publisher interface {
	StageTracked() error
	Commit(message string) error
	Push(branch string) error
}

// Finalize stages tracked changes, commits them with
// CommitMessage and pushes branch, in that order. It stops at
// the first failing step; effects of earlier steps (e.g. a
// local commit) are left in place.
func Finalize(repo Publisher, branch string) error {
	const errCtx = "finalizing bump branch"

	slog.Info("staging changes")

	if err := repo.StageTracked(); err != nil {
		return fmt.Errorf("%s: stage: %w", errCtx, err)
	}

	slog.Info("committing", "message", CommitMessage)

	if err := repo.Commit(CommitMessage); err != nil {
		return fmt.Errorf("%s: commit: %w", errCtx, err)
	}

	slog.Info("pushing to remote", "branch", branch)

	if err := repo.Push(branch); err != nil {
		return fmt.Errorf("%s: push: %w", errCtx, err)
	}

	return nil
}
