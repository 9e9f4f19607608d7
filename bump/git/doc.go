// Package git provides the repository gateway used by the bump
// workflow and a strategy interface for opening pull requests
// across different git hosting platforms.
//
// Repo wraps a local clone. Every mutating operation shells out
// to git and reports failures as *OperationError carrying the
// captured tool output. Branch existence and the remote URL are
// read from the repository metadata with go-git.
//
// The GitProvider interface abstracts PR creation. Implementations
// exist for Azure DevOps, GitHub, GitLab, and Bitbucket Server in
// sub-packages. GitProviderFunc lets plain functions satisfy the
// interface.
package git
