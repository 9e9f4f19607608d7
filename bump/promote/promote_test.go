package promote_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tompish/nubu/bump/git"
	"github.com/Tompish/nubu/bump/promote"
)

var chain = promote.Chain{"develop", "release", "master"}

func TestBranchName(t *testing.T) {
	t.Parallel()

	for _, env := range chain {
		assert.Equal(t, "bump-nugets-"+env, promote.BranchName(env))
	}
}

func TestChain_At(t *testing.T) {
	t.Parallel()

	env, err := chain.At(1)
	require.NoError(t, err)
	assert.Equal(t, promote.Environment{Name: "release", Ordinal: 1}, env)

	_, err = chain.At(3)
	assert.ErrorIs(t, err, promote.ErrOrdinal)

	_, err = chain.At(-1)
	assert.ErrorIs(t, err, promote.ErrOrdinal)
}

func TestChain_Previous(t *testing.T) {
	t.Parallel()

	_, ok := chain.Previous(promote.Environment{Name: "develop"})
	assert.False(t, ok)

	prev, ok := chain.Previous(promote.Environment{Name: "master", Ordinal: 2})
	require.True(t, ok)
	assert.Equal(t, "release", prev.Name)
}

func TestPrepare_new_branch_first_environment(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.log = []string{"fix #12 thing", "#12 dup", "#45 other", "no ticket here"}

	res, err := promote.NewOrchestrator(repo, chain).Prepare(0)

	require.NoError(t, err)
	assert.Equal(t, "bump-nugets-develop", res.Branch)
	assert.True(t, res.Created)
	assert.ElementsMatch(t, []string{"12", "45"}, res.WorkItems.IDs())
	assert.Equal(
		t,
		[]string{
			"status",
			"fetch",
			"exists bump-nugets-develop",
			"checkout-new bump-nugets-develop origin/develop",
			"log origin/develop..HEAD",
		},
		repo.calls,
	)
}

func TestPrepare_existing_branch_syncs(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.branches["bump-nugets-develop"] = true

	res, err := promote.NewOrchestrator(repo, chain).Prepare(0)

	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, repo.called("checkout-new"))
	assert.Equal(
		t,
		[]string{
			"status",
			"fetch",
			"exists bump-nugets-develop",
			"checkout bump-nugets-develop",
			"reset bump-nugets-develop origin/develop",
			"log origin/develop..HEAD",
		},
		repo.calls,
	)
}

func TestPrepare_merges_previous_environment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ordinal   int
		wantMerge string
	}{
		{ordinal: 0},
		{ordinal: 1, wantMerge: "merge origin/develop theirs"},
		{ordinal: 2, wantMerge: "merge origin/release theirs"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(chain[tt.ordinal], func(t *testing.T) {
			t.Parallel()

			repo := newFakeRepo()

			_, err := promote.NewOrchestrator(repo, chain).Prepare(tt.ordinal)
			require.NoError(t, err)

			if tt.wantMerge == "" {
				assert.False(t, repo.called("merge"))

				return
			}

			assert.Contains(t, repo.calls, tt.wantMerge)
			// Merge happens after the branch is in place
			// and before work items are extracted.
			assert.Equal(t, tt.wantMerge, repo.calls[len(repo.calls)-2])
		})
	}
}

func TestPrepare_dirty_tree_is_advisory(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.dirty = []string{" M app.csproj"}

	res, err := promote.NewOrchestrator(repo, chain).Prepare(0)

	require.NoError(t, err)
	assert.Equal(t, []string{" M app.csproj"}, res.Dirty)
	assert.True(t, repo.called("fetch"))
}

func TestPrepare_reset_failure_is_advisory(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.branches["bump-nugets-release"] = true
	repo.fail["reset"] = &git.OperationError{
		Op:     "reset",
		Output: "fatal: ambiguous argument",
		Err:    errors.New("exit status 128"),
	}

	res, err := promote.NewOrchestrator(repo, chain).Prepare(1)

	require.NoError(t, err)
	assert.Equal(t, "bump-nugets-release", res.Branch)
	assert.True(t, repo.called("merge origin/develop"))
	assert.True(t, repo.called("log"))
}

func TestPrepare_fatal_failures_abort(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	tests := []struct {
		failOp   string
		existing bool
		ordinal  int
		wantStep promote.State
		notAfter string
	}{
		{failOp: "status", wantStep: promote.StateCheckDirty, notAfter: "fetch"},
		{failOp: "fetch", wantStep: promote.StateFetch, notAfter: "exists"},
		{failOp: "exists", wantStep: promote.StateDetermineBranch, notAfter: "checkout"},
		{failOp: "checkout-new", wantStep: promote.StateCreateOrSync, notAfter: "log"},
		{failOp: "checkout", existing: true, wantStep: promote.StateCreateOrSync, notAfter: "reset"},
		{failOp: "merge", ordinal: 1, wantStep: promote.StateMergePrevious, notAfter: "log"},
		{failOp: "log", wantStep: promote.StateExtractWorkItems},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.failOp, func(t *testing.T) {
			t.Parallel()

			repo := newFakeRepo()
			repo.fail[tt.failOp] = errBoom
			repo.branches[promote.BranchName(chain[tt.ordinal])] = tt.existing

			res, err := promote.NewOrchestrator(repo, chain).Prepare(tt.ordinal)

			assert.Nil(t, res)
			require.ErrorIs(t, err, errBoom)

			var stepErr *promote.StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, tt.wantStep, stepErr.Step)

			if tt.notAfter != "" {
				assert.False(t, repo.called(tt.notAfter))
			}
		})
	}
}

func TestPrepare_ordinal_out_of_range(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()

	_, err := promote.NewOrchestrator(repo, chain).Prepare(5)

	require.ErrorIs(t, err, promote.ErrOrdinal)
	assert.Empty(t, repo.calls)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "merge-previous", promote.StateMergePrevious.String())
	assert.Equal(t, "ready", promote.StateReady.String())
	assert.Equal(t, "state(42)", promote.State(42).String())
}
