package main

import (
	"fmt"
	"strings"

	"github.com/Tompish/nubu/bump/git"
	"github.com/Tompish/nubu/bump/git/azure"
	"github.com/Tompish/nubu/bump/git/bitbucket"
	"github.com/Tompish/nubu/bump/git/github"
	"github.com/Tompish/nubu/bump/git/gitlab"
)

// providerFlags bundles the provider-specific flag values.
type providerFlags struct {
	azOpen     bool
	ghToken    string
	ghBaseURL  string
	glToken    string
	glHost     string
	bbBaseURL  string
	bbUser     string
	bbPassword string
}

// remote is what the providers need to know about the clone.
type remote interface {
	RemoteURL() (string, error)
}

// newGitProvider creates a git.GitProvider for the named
// platform. The repository coordinates come from the clone's
// remote URL. "none" or an empty name yields a nil provider,
// which skips PR creation.
//
// Pattern: Factory -- selects platform implementation at
// runtime.
func newGitProvider(
	name string,
	repo remote,
	pf providerFlags,
) (git.GitProvider, error) {
	const errCtx = "creating git provider"

	if name == "" || name == "none" {
		return nil, nil
	}

	url, err := repo.RemoteURL()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var p git.GitProvider

	switch name {
	case "azure":
		p, err = azure.NewProvider(azure.Config{
			RemoteURL: url,
			Open:      pf.azOpen,
		})

	case "github":
		p, err = newGitHub(url, pf)

	case "gitlab":
		p, err = newGitLab(url, pf)

	case "bitbucket":
		p, err = newBitbucket(url, pf)

	default:
		return nil, fmt.Errorf(
			"%s: unknown provider %q", errCtx, name,
		)
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return p, nil
}

func newGitHub(url string, pf providerFlags) (git.GitProvider, error) {
	path, err := git.RepoPath(url)
	if err != nil {
		return nil, err
	}

	owner, name, err := git.SplitRepoPath(path)
	if err != nil {
		return nil, err
	}

	return github.NewProvider(github.Config{
		RepoOwner:   owner,
		Repo:        name,
		AccessToken: pf.ghToken,
		BaseURL:     pf.ghBaseURL,
	})
}

func newGitLab(url string, pf providerFlags) (git.GitProvider, error) {
	path, err := git.RepoPath(url)
	if err != nil {
		return nil, err
	}

	return gitlab.NewProvider(gitlab.Config{
		Host:        pf.glHost,
		Repo:        path,
		AccessToken: pf.glToken,
	})
}

func newBitbucket(url string, pf providerFlags) (git.GitProvider, error) {
	path, err := git.RepoPath(url)
	if err != nil {
		return nil, err
	}

	// HTTP clone URLs on Bitbucket Server carry an scm/ prefix.
	path = strings.TrimPrefix(path, "scm/")

	project, slug, err := git.SplitRepoPath(path)
	if err != nil {
		return nil, err
	}

	return bitbucket.NewProvider(bitbucket.Config{
		BaseURL:    pf.bbBaseURL,
		ProjectKey: project,
		RepoSlug:   slug,
		User:       pf.bbUser,
		Password:   pf.bbPassword,
	})
}
