// Package promote drives a dependency bump through a chain of
// environment branches.
//
// Orchestrator.Prepare is the branch state machine: it fetches,
// creates or resynchronizes the bump branch of one environment,
// merges the previous environment forward, and reports the work
// items of the commits in flight. Finalize stages, commits and
// pushes the finished branch. Run chains both around a Bumper
// that edits and builds the project, then opens a pull request
// through a git.GitProvider.
//
// Every fatal failure is returned as an error value; nothing in
// this package terminates the process.
package promote
