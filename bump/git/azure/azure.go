// Package azure opens pull requests on Azure DevOps Repos by
// driving the az CLI with the azure-devops extension.
package azure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Tompish/nubu/bump/exec"
	"github.com/Tompish/nubu/bump/git"
)

// Config holds the settings needed to open Azure DevOps pull
// requests.
type Config struct {
	// RemoteURL is the clone URL of the repository. It is
	// matched against the remoteUrl of the repositories az
	// can see to find the repository id.
	RemoteURL string
	// Open asks az to open the new PR in a browser.
	Open bool
	// Run overrides the command runner. Defaults to
	// exec.Ex.
	Run exec.Runner
}

// Provider opens pull requests on Azure DevOps.
//
// Pattern: Strategy -- implements git.GitProvider.
type Provider struct {
	remoteURL string
	open      bool
	run       exec.Runner
}

var _ git.GitProvider = (*Provider)(nil)

type createdPR struct {
	PullRequestID int `json:"pullRequestId"`
	Repository    struct {
		WebURL string `json:"webUrl"`
	} `json:"repository"`
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating azure devops provider"

	if cfg.RemoteURL == "" {
		return nil, fmt.Errorf(
			"%s: remote url must be set", errCtx,
		)
	}

	run := cfg.Run
	if run == nil {
		run = exec.Ex
	}

	return &Provider{
		remoteURL: cfg.RemoteURL,
		open:      cfg.Open,
		run:       run,
	}, nil
}

// CreatePR resolves the repository id and opens a pull request
// from pr.Source into pr.Target, linking pr.WorkItems. An active
// pull request for the same branches counts as success.
func (p *Provider) CreatePR(
	_ context.Context,
	pr git.PullRequest,
) error {
	const errCtx = "creating azure devops pull request"

	repoID, err := p.repoID()
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	args := []string{
		"repos", "pr", "create",
		"--repository", repoID,
		"--source-branch", "refs/heads/" + pr.Source,
		"--target-branch", "refs/heads/" + pr.Target,
		"--title", pr.Title,
		"--output", "json",
	}

	if pr.Body != "" {
		args = append(args, "--description", pr.Body)
	}

	if len(pr.WorkItems) > 0 {
		args = append(args, "--work-items")
		args = append(args, pr.WorkItems...)
	}

	if p.open {
		args = append(args, "--open")
	}

	out, err := p.run("", "az", args...)
	if err != nil {
		if alreadyActive(err) {
			slog.Info(
				"pull request already open",
				"source", pr.Source,
				"target", pr.Target,
			)

			return nil
		}

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	var created createdPR
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		slog.Warn(
			"cannot parse az output",
			"error", err,
		)

		return nil
	}

	slog.Info(
		"created pull request",
		"id", created.PullRequestID,
		"repository", created.Repository.WebURL,
	)

	return nil
}

// repoID looks up the id of the repository whose remoteUrl
// contains the configured remote URL.
func (p *Provider) repoID() (string, error) {
	const errCtx = "resolving repository id"

	query := fmt.Sprintf(
		"[?contains(remoteUrl, '%s')].id", rawLiteral(p.remoteURL),
	)

	out, err := p.run(
		"", "az",
		"repos", "list",
		"--query", query,
		"--output", "json",
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(out), &ids); err != nil {
		return "", fmt.Errorf(
			"%s: parse az output: %w", errCtx, err,
		)
	}

	if len(ids) == 0 {
		return "", fmt.Errorf(
			"%s: no repository matches %s",
			errCtx, p.remoteURL,
		)
	}

	return ids[0], nil
}

// rawLiteral escapes s for use inside a single quoted JMESPath
// raw string literal.
func rawLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)

	return strings.ReplaceAll(s, `'`, `\'`)
}

// alreadyActive reports whether az refused to create a pull
// request because an active one exists for the same branches.
func alreadyActive(err error) bool {
	msg := err.Error()

	var cmdErr *exec.CommandError
	if errors.As(err, &cmdErr) {
		msg += " " + cmdErr.Output
	}

	msg = strings.ToLower(msg)

	return strings.Contains(msg, "active pull request") &&
		strings.Contains(msg, "already exists")
}
