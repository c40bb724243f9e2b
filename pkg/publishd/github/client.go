package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v41/github"
	"github.com/nais/publish/pkg/publishd/metrics"
	"golang.org/x/oauth2"
)

var ErrRepositoryNotFound = fmt.Errorf("repository not found")

const DefaultHost = "github.com"

// RepositoryChecker verifies that a repository URL points at something that exists.
type RepositoryChecker interface {
	Exists(ctx context.Context, repositoryURL string) error
}

type client struct {
	client *gh.Client
	host   string
}

func New(c *gh.Client, host string) RepositoryChecker {
	return &client{
		client: c,
		host:   strings.ToLower(host),
	}
}

// NewClient creates a GitHub API client, authenticated if a token is given.
// An empty apiURL means public GitHub.
func NewClient(ctx context.Context, apiURL, token string) (*gh.Client, error) {
	var httpClient *http.Client
	if len(token) > 0 {
		ts := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
		})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	if len(apiURL) == 0 {
		return gh.NewClient(httpClient), nil
	}

	return gh.NewEnterpriseClient(apiURL, apiURL, httpClient)
}

// SplitRepositoryURL extracts owner and repository name from a web URL such as
// https://github.com/owner/repo or https://github.com/owner/repo.git.
func SplitRepositoryURL(repositoryURL, host string) (string, string, error) {
	u, err := url.Parse(repositoryURL)
	if err != nil {
		return "", "", err
	}

	if !strings.EqualFold(u.Hostname(), host) {
		return "", "", fmt.Errorf("repository is not hosted on %s", host)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[1]) == 0 {
		return "", "", fmt.Errorf("repository URL %s is not in the format https://%s/OWNER/NAME", repositoryURL, host)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// Exists returns ErrRepositoryNotFound if GitHub does not know the repository.
// URLs pointing at other hosts are not checked.
func (c *client) Exists(ctx context.Context, repositoryURL string) error {
	owner, name, err := SplitRepositoryURL(repositoryURL, c.host)
	if err != nil {
		return nil
	}

	_, resp, err := c.client.Repositories.Get(ctx, owner, name)

	if resp != nil {
		metrics.GitHubRequest(resp.StatusCode)
	}

	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return ErrRepositoryNotFound
		}
		return err
	}

	return nil
}
