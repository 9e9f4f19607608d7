// Package bitbucket opens pull requests on Bitbucket Server
// through its REST API.
package bitbucket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Tompish/nubu/bump/git"
)

// Config holds the settings needed to open Bitbucket Server
// pull requests.
type Config struct {
	// BaseURL is the Bitbucket Server root
	// (e.g. "https://bb.example.com").
	BaseURL string
	// ProjectKey is the project holding the repository
	// (e.g. "TM").
	ProjectKey string
	// RepoSlug is the repository slug.
	RepoSlug string
	// User is the Bitbucket API username.
	User string
	// Password is the Bitbucket API password or personal
	// access token.
	Password string
}

// Provider opens pull requests on Bitbucket Server.
//
// Pattern: Strategy -- implements git.GitProvider.
type Provider struct {
	endpoint string
	repo     repository
	user     string
	password string
	client   *http.Client
}

var _ git.GitProvider = (*Provider)(nil)

type project struct {
	Key string `json:"key,omitempty"`
}

type repository struct {
	Slug    string  `json:"slug,omitempty"`
	Project project `json:"project"`
}

type pullrequestEndpoint struct {
	ID         string     `json:"id,omitempty"`
	Repository repository `json:"repository"`
}

type pullrequest struct {
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	State       string               `json:"state,omitempty"`
	Open        bool                 `json:"open"`
	Closed      bool                 `json:"closed"`
	FromRef     *pullrequestEndpoint `json:"fromRef,omitempty"`
	ToRef       *pullrequestEndpoint `json:"toRef,omitempty"`
	Locked      bool                 `json:"locked"`
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating bitbucket provider"

	missing := ""

	switch {
	case cfg.BaseURL == "":
		missing = "base url"
	case cfg.ProjectKey == "":
		missing = "project key"
	case cfg.RepoSlug == "":
		missing = "repo slug"
	case cfg.User == "":
		missing = "user"
	case cfg.Password == "":
		missing = "password"
	}

	if missing != "" {
		return nil, fmt.Errorf(
			"%s: %s must be set", errCtx, missing,
		)
	}

	endpoint := fmt.Sprintf(
		"%s/rest/api/1.0/projects/%s/repos/%s/pull-requests",
		strings.TrimRight(cfg.BaseURL, "/"),
		cfg.ProjectKey, cfg.RepoSlug,
	)

	return &Provider{
		endpoint: endpoint,
		repo: repository{
			Slug:    cfg.RepoSlug,
			Project: project{Key: cfg.ProjectKey},
		},
		user:     cfg.User,
		password: cfg.Password,
		client:   http.DefaultClient,
	}, nil
}

// CreatePR opens a pull request from pr.Source into
// pr.Target. Returns nil on 201 (created) or 409 (already
// open).
func (p *Provider) CreatePR(
	ctx context.Context,
	pr git.PullRequest,
) error {
	const errCtx = "creating bitbucket pull request"

	body := pullrequest{
		Title:       pr.Title,
		Description: pr.Body,
		State:       "OPEN",
		Open:        true,
		FromRef: &pullrequestEndpoint{
			ID:         "refs/heads/" + pr.Source,
			Repository: p.repo,
		},
		ToRef: &pullrequestEndpoint{
			ID:         "refs/heads/" + pr.Target,
			Repository: p.repo,
		},
	}

	payload, err := json.Marshal(&body)
	if err != nil {
		return fmt.Errorf(
			"%s: marshal request: %w", errCtx, err,
		)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.endpoint,
		bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf(
			"%s: build request: %w", errCtx, err,
		)
	}

	req.Header.Set(
		"Content-Type",
		"application/json; charset=utf-8",
	)
	req.SetBasicAuth(p.user, p.password)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf(
			"%s: send request: %w", errCtx, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("cannot read response body", "error", err)
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		slog.Info("pull request created", "source", pr.Source)

		return nil
	case http.StatusConflict:
		slog.Info("pull request already open", "source", pr.Source)

		return nil
	default:
		slog.Warn(
			"bitbucket response",
			"status", resp.Status,
			"body", string(rb),
		)

		return fmt.Errorf(
			"%s: unexpected status %d",
			errCtx, resp.StatusCode,
		)
	}
}
