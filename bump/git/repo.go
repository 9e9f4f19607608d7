package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/Tompish/nubu/bump/exec"
)

// DefaultRemote is the remote name used when none is
// configured.
const DefaultRemote = "origin"

// MergeStrategy selects how merge conflicts are resolved.
type MergeStrategy string

// StrategyTheirs resolves every conflict in favour of the
// incoming branch.
const StrategyTheirs MergeStrategy = "theirs"

// OperationError reports a failed git invocation. Output is
// the captured combined output of the git process.
type OperationError struct {
	Op     string
	Output string
	Hint   string
	Err    error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Op)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}

	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Repo is a local clone of a git repository owned by the
// caller.
type Repo struct {
	// Dir is the filesystem location of the clone.
	Dir string
	// RemoteName is the name of the upstream remote.
	RemoteName string
}

// Open returns a Repo for the clone at dir. An empty remote
// selects DefaultRemote.
func Open(dir string, remote string) (*Repo, error) {
	const errCtx = "opening repository"

	if !IsRepo(dir) {
		return nil, fmt.Errorf(
			"%s: %s is not a git repository", errCtx, dir,
		)
	}

	if remote == "" {
		remote = DefaultRemote
	}

	return &Repo{Dir: dir, RemoteName: remote}, nil
}

// RemoteRef returns the remote-tracking name of branch, e.g.
// "origin/develop".
func (r *Repo) RemoteRef(branch string) string {
	return r.RemoteName + "/" + branch
}

// Fetch synchronizes remote refs.
func (r *Repo) Fetch() error {
	return r.run("fetch", "", "fetch", r.RemoteName)
}

// Status returns the porcelain status lines of the working
// tree. An empty slice means the tree is clean.
func (r *Repo) Status() ([]string, error) {
	out, err := exec.Ex(
		r.Dir, "git", "status", "--porcelain",
	)
	if err != nil {
		return nil, opError("status", "", out, err)
	}

	return exec.Lines(out), nil
}

// BranchExists reports whether a local branch called name
// exists. Only refs/heads is consulted; remote-tracking refs
// and config entries are ignored.
func (r *Repo) BranchExists(name string) (bool, error) {
	const errCtx = "checking local branch"

	repo, err := gogit.PlainOpen(r.Dir)
	if err != nil {
		return false, fmt.Errorf(
			"%s %s: open: %w", errCtx, name, err,
		)
	}

	_, err = repo.Reference(
		plumbing.NewBranchReferenceName(name), false,
	)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, fmt.Errorf(
			"%s %s: %w", errCtx, name, err,
		)
	}
}

// CheckoutNew creates branch from the remote-tracking ref of
// remoteBranch and switches to it.
func (r *Repo) CheckoutNew(
	branch string,
	remoteBranch string,
) error {
	return r.run(
		"checkout", "",
		"checkout", "-b", branch, r.RemoteRef(remoteBranch),
	)
}

// CheckoutExisting switches to an existing local branch.
func (r *Repo) CheckoutExisting(branch string) error {
	return r.run("checkout", "", "checkout", branch)
}

// ResetHard rewrites the checked-out branch to match the
// remote-tracking ref of remoteBranch. Local commits on branch
// are discarded. branch must be the current branch.
func (r *Repo) ResetHard(
	branch string,
	remoteBranch string,
) error {
	err := r.run(
		"reset", "",
		"reset", "--hard", r.RemoteRef(remoteBranch),
	)
	if err != nil {
		return fmt.Errorf("resetting %s: %w", branch, err)
	}

	return nil
}

// Merge merges the remote-tracking ref of remoteBranch into
// the current branch.
func (r *Repo) Merge(
	remoteBranch string,
	strategy MergeStrategy,
) error {
	args := []string{"merge", "--no-edit"}
	if strategy != "" {
		args = append(args, "-X", string(strategy))
	}

	args = append(args, r.RemoteRef(remoteBranch))

	return r.run("merge", "", args...)
}

// CommitMessages returns the log lines of the commits
// reachable from head but not from the remote-tracking ref of
// base.
func (r *Repo) CommitMessages(
	base string,
	head string,
) ([]string, error) {
	out, err := exec.Ex(
		r.Dir, "git",
		"log", r.RemoteRef(base)+".."+head,
	)
	if err != nil {
		return nil, opError("log", "", out, err)
	}

	return exec.Lines(out), nil
}

// StageTracked stages modifications of files already tracked
// by git. Untracked files are never added.
func (r *Repo) StageTracked() error {
	return r.run("add", "", "add", "-u")
}

// Commit records the staged changes with message.
func (r *Repo) Commit(message string) error {
	return r.run("commit", "", "commit", "-m", message)
}

// Push pushes branch and sets its upstream.
func (r *Repo) Push(branch string) error {
	return r.run(
		"push",
		"is there an existing bump branch on the remote?",
		"push", "-u", r.RemoteName, branch,
	)
}

// RemoteURL returns the first URL configured for the remote.
func (r *Repo) RemoteURL() (string, error) {
	const errCtx = "reading remote url"

	repo, err := gogit.PlainOpen(r.Dir)
	if err != nil {
		return "", fmt.Errorf("%s: open: %w", errCtx, err)
	}

	remote, err := repo.Remote(r.RemoteName)
	if err != nil {
		return "", fmt.Errorf(
			"%s: remote %s: %w", errCtx, r.RemoteName, err,
		)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf(
			"%s: remote %s has no url", errCtx, r.RemoteName,
		)
	}

	return urls[0], nil
}

func (r *Repo) run(op string, hint string, args ...string) error {
	out, err := exec.Ex(r.Dir, "git", args...)
	if err != nil {
		return opError(op, hint, out, err)
	}

	return nil
}

// opError wraps a failed git invocation. A missing git binary
// stays reachable through errors.As on the returned error.
func opError(op, hint, out string, err error) error {
	return &OperationError{
		Op:     op,
		Output: out,
		Hint:   hint,
		Err:    err,
	}
}

// IsRepo reports whether dir is the root of a git clone.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))

	return err == nil
}

// FindRepos returns root itself when it is a clone, otherwise
// the sorted immediate subdirectories of root that are.
func FindRepos(root string) ([]string, error) {
	const errCtx = "finding repositories"

	if IsRepo(root) {
		return []string{root}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var repos []string

	for _, en := range entries {
		if !en.IsDir() {
			continue
		}

		dir := filepath.Join(root, en.Name())
		if IsRepo(dir) {
			repos = append(repos, dir)
		}
	}

	sort.Strings(repos)

	return repos, nil
}
