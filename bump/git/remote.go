package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// RepoPath returns the hosting path of a clone URL without
// the .git suffix, e.g. "org/repo" for both
// https://github.com/org/repo.git and git@github.com:org/repo.git.
func RepoPath(remoteURL string) (string, error) {
	const errCtx = "parsing remote url"

	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	path := strings.Trim(ep.Path, "/")
	path = strings.TrimSuffix(path, ".git")

	if path == "" {
		return "", fmt.Errorf(
			"%s: %s has no repository path", errCtx, remoteURL,
		)
	}

	return path, nil
}

// SplitRepoPath splits "org/repo" into owner and name. Nested
// groups stay in the owner.
func SplitRepoPath(path string) (owner, name string, err error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf(
			"repository path %q is not owner/name", path,
		)
	}

	return path[:i], path[i+1:], nil
}
