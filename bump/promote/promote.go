package promote

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tompish/nubu/bump/git"
	"github.com/Tompish/nubu/bump/workitem"
)

// BranchPrefix starts the name of every bump branch.
const BranchPrefix = "bump-nugets-"

// ErrOrdinal is returned for an environment ordinal outside
// the chain.
var ErrOrdinal = errors.New("environment ordinal out of range")

// Environment is one stage of the promotion chain.
type Environment struct {
	Name    string
	Ordinal int
}

// Chain is the ordered list of environment branch names.
// Promotion flows from index 0 towards the end.
type Chain []string

// At returns the environment at ordinal.
func (c Chain) At(ordinal int) (Environment, error) {
	if ordinal < 0 || ordinal >= len(c) {
		return Environment{}, fmt.Errorf(
			"%w: %d not in [0, %d)", ErrOrdinal, ordinal, len(c),
		)
	}

	return Environment{Name: c[ordinal], Ordinal: ordinal}, nil
}

// Previous returns the environment preceding env, or false for
// the first environment of the chain.
func (c Chain) Previous(env Environment) (Environment, bool) {
	if env.Ordinal <= 0 || env.Ordinal > len(c) {
		return Environment{}, false
	}

	return Environment{
		Name:    c[env.Ordinal-1],
		Ordinal: env.Ordinal - 1,
	}, true
}

// BranchName returns the bump branch of environment name.
func BranchName(name string) string {
	return BranchPrefix + name
}

// State is a step of the branch state machine.
type State int

// States in the order Prepare visits them.
const (
	StateInit State = iota
	StateCheckDirty
	StateFetch
	StateDetermineBranch
	StateCreateOrSync
	StateMergePrevious
	StateExtractWorkItems
	StateReady
)

var stateNames = [...]string{
	"init",
	"check-dirty",
	"fetch",
	"determine-branch",
	"create-or-sync",
	"merge-previous",
	"extract-work-items",
	"ready",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}

	return stateNames[s]
}

// StepError reports the state in which Prepare aborted. No
// branch or merge created before the failure is undone.
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("aborted at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Gateway is the subset of git.Repo the state machine drives.
type Gateway interface {
	Status() ([]string, error)
	Fetch() error
	BranchExists(name string) (bool, error)
	CheckoutNew(branch string, remoteBranch string) error
	CheckoutExisting(branch string) error
	ResetHard(branch string, remoteBranch string) error
	Merge(remoteBranch string, strategy git.MergeStrategy) error
	CommitMessages(base string, head string) ([]string, error)
}

var _ Gateway = (*git.Repo)(nil)

// Result is the outcome of a successful Prepare.
type Result struct {
	// Environment is the promotion target.
	Environment Environment
	// Branch is the bump branch now checked out.
	Branch string
	// Created is true when the branch did not exist
	// locally before this run.
	Created bool
	// Dirty lists the working tree changes found before
	// fetching.
	Dirty []string
	// WorkItems are the tickets referenced between the
	// environment branch and the bump branch.
	WorkItems workitem.Set
}

// Orchestrator brings the bump branch of one environment into
// a state ready for editing.
type Orchestrator struct {
	repo  Gateway
	chain Chain
}

// NewOrchestrator returns an Orchestrator working on repo with
// the given environment chain.
func NewOrchestrator(repo Gateway, chain Chain) *Orchestrator {
	return &Orchestrator{repo: repo, chain: chain}
}

// Prepare runs the state machine for the environment at
// ordinal. Any fatal gateway failure returns a *StepError;
// a failed hard reset is logged and the run continues.
func (o *Orchestrator) Prepare(ordinal int) (*Result, error) {
	env, err := o.chain.At(ordinal)
	if err != nil {
		return nil, &StepError{Step: StateInit, Err: err}
	}

	res := &Result{
		Environment: env,
		Branch:      BranchName(env.Name),
	}

	// Uncommitted changes are reported, not fatal.
	res.Dirty, err = o.repo.Status()
	if err != nil {
		return nil, &StepError{Step: StateCheckDirty, Err: err}
	}

	if len(res.Dirty) > 0 {
		slog.Warn(
			"working tree has uncommitted changes, "+
				"please commit or undo them",
			"files", strings.Join(res.Dirty, "\n"),
		)
	}

	slog.Info("fetching")

	if err := o.repo.Fetch(); err != nil {
		return nil, &StepError{Step: StateFetch, Err: err}
	}

	exists, err := o.repo.BranchExists(res.Branch)
	if err != nil {
		return nil, &StepError{Step: StateDetermineBranch, Err: err}
	}

	if err := o.createOrSync(res.Branch, env.Name, exists); err != nil {
		return nil, &StepError{Step: StateCreateOrSync, Err: err}
	}

	res.Created = !exists

	if prev, ok := o.chain.Previous(env); ok {
		slog.Info(
			"merging previous environment into bump branch",
			"from", prev.Name,
			"branch", res.Branch,
		)

		if err := o.repo.Merge(
			prev.Name, git.StrategyTheirs,
		); err != nil {
			return nil, &StepError{Step: StateMergePrevious, Err: err}
		}
	}

	lines, err := o.repo.CommitMessages(env.Name, "HEAD")
	if err != nil {
		return nil, &StepError{Step: StateExtractWorkItems, Err: err}
	}

	res.WorkItems = workitem.Extract(lines)

	slog.Info(
		"bump branch ready",
		"branch", res.Branch,
		"created", res.Created,
		"work_items", res.WorkItems.IDs(),
	)

	return res, nil
}

// createOrSync checks out a new branch tracking the
// environment, or switches to the existing one and resets it.
func (o *Orchestrator) createOrSync(
	branch string,
	envName string,
	exists bool,
) error {
	if !exists {
		slog.Info("creating new local branch", "branch", branch)

		return o.repo.CheckoutNew(branch, envName)
	}

	slog.Info("found existing bump branch", "branch", branch)

	if err := o.repo.CheckoutExisting(branch); err != nil {
		return err
	}

	slog.Info("syncing branch", "branch", branch, "to", envName)

	if err := o.repo.ResetHard(branch, envName); err != nil {
		slog.Warn(
			"failed to reset branch, continuing",
			"branch", branch,
			"error", err,
			"output", outputOf(err),
		)
	}

	return nil
}

// outputOf returns the captured git output carried by err, if
// any.
func outputOf(err error) string {
	var opErr *git.OperationError
	if errors.As(err, &opErr) {
		return opErr.Output
	}

	return ""
}
