package promote_test

import (
	"fmt"
	"strings"

	"github.com/Tompish/nubu/bump/git"
)

// fakeRepo records every gateway call as a short string and
// fails the calls listed in fail.
type fakeRepo struct {
	calls    []string
	dirty    []string
	branches map[string]bool
	log      []string
	fail     map[string]error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		branches: map[string]bool{},
		fail:     map[string]error{},
	}
}

func (f *fakeRepo) record(op string, args ...string) error {
	call := strings.TrimSpace(op + " " + strings.Join(args, " "))
	f.calls = append(f.calls, call)

	return f.fail[op]
}

func (f *fakeRepo) Status() ([]string, error) {
	if err := f.record("status"); err != nil {
		return nil, err
	}

	return f.dirty, nil
}

func (f *fakeRepo) Fetch() error { return f.record("fetch") }

func (f *fakeRepo) BranchExists(name string) (bool, error) {
	if err := f.record("exists", name); err != nil {
		return false, err
	}

	return f.branches[name], nil
}

func (f *fakeRepo) CheckoutNew(branch, remote string) error {
	return f.record("checkout-new", branch, "origin/"+remote)
}

func (f *fakeRepo) CheckoutExisting(branch string) error {
	return f.record("checkout", branch)
}

func (f *fakeRepo) ResetHard(branch, remote string) error {
	return f.record("reset", branch, "origin/"+remote)
}

func (f *fakeRepo) Merge(remote string, strategy git.MergeStrategy) error {
	return f.record("merge", "origin/"+remote, string(strategy))
}

func (f *fakeRepo) CommitMessages(base, head string) ([]string, error) {
	if err := f.record("log", fmt.Sprintf("origin/%s..%s", base, head)); err != nil {
		return nil, err
	}

	return f.log, nil
}

func (f *fakeRepo) StageTracked() error { return f.record("add") }

func (f *fakeRepo) Commit(message string) error {
	return f.record("commit", message)
}

func (f *fakeRepo) Push(branch string) error {
	return f.record("push", branch)
}

func (f *fakeRepo) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}

	return false
}
