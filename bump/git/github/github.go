package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v68/github"

	"github.com/Tompish/nubu/bump/git"
)

// Config holds the settings needed to open GitHub pull
// requests.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token.
	AccessToken string
	// BaseURL optionally points at a GitHub Enterprise
	// API root (e.g. "https://git.corp.example.com/api/v3/").
	// Leave empty for github.com.
	BaseURL string
}

// Provider opens pull requests on GitHub.
//
// Pattern: Strategy -- implements git.GitProvider.
type Provider struct {
	client    *gh.Client
	repoOwner string
	repo      string
}

var _ git.GitProvider = (*Provider)(nil)

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	switch {
	case cfg.RepoOwner == "":
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	case cfg.Repo == "":
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	case cfg.AccessToken == "":
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).WithAuthToken(cfg.AccessToken)

	if cfg.BaseURL != "" {
		var err error

		client, err = client.WithEnterpriseURLs(
			cfg.BaseURL, cfg.BaseURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: base url: %w", errCtx, err,
			)
		}
	}

	return &Provider{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
	}, nil
}

// CreatePR opens a pull request from pr.Source into
// pr.Target. An already open PR for the same pair (HTTP 422)
// counts as success.
func (p *Provider) CreatePR(
	ctx context.Context,
	pr git.PullRequest,
) error {
	const errCtx = "creating github pull request"

	body := pr.Body
	if body == "" {
		body = pr.Title
	}

	created, resp, err := p.client.PullRequests.Create(
		ctx, p.repoOwner, p.repo,
		&gh.NewPullRequest{
			Title: gh.Ptr(pr.Title),
			Head:  gh.Ptr(pr.Source),
			Base:  gh.Ptr(pr.Target),
			Body:  gh.Ptr(body),
		},
	)
	if err == nil {
		slog.Info(
			"created pull request",
			"url", created.GetHTMLURL(),
		)

		return nil
	}

	if resp != nil &&
		resp.StatusCode == http.StatusUnprocessableEntity {
		slog.Info(
			"pull request already open",
			"head", pr.Source,
			"base", pr.Target,
		)

		return nil
	}

	if resp != nil && resp.Body != nil {
		defer resp.Body.Close() //nolint:errcheck

		if rb, readErr := io.ReadAll(resp.Body); readErr == nil {
			slog.Warn("github response", "body", string(rb))
		}
	}

	return fmt.Errorf("%s: %w", errCtx, err)
}
