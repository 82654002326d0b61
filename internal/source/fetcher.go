// Package source fetches repository content from the GitHub REST API.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/go-github/v69/github"

	"github.com/ppiankov/slopscore/internal/cache"
	"github.com/ppiankov/slopscore/internal/metrics"
	"github.com/ppiankov/slopscore/internal/model"
	"github.com/ppiankov/slopscore/internal/worker"
)

// FileTree is the flattened file listing of a repository's default branch
type FileTree struct {
	Paths     []string `json:"paths"`
	Branch    string   `json:"branch"`
	Truncated bool     `json:"truncated"`
}

// Options configures a Fetcher
type Options struct {
	// BaseURL of the REST API; must end with a slash
	BaseURL string

	UserAgent  string
	HTTPClient *http.Client

	Cache    cache.Cache
	CacheTTL time.Duration

	Limiter *worker.Limiter
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Exclude drops tree paths matching any of these doublestar patterns
	Exclude []string
}

// Fetcher reads READMEs and file trees
type Fetcher struct {
	client   *github.Client
	host     string
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	exclude  []string
}

// NewFetcher creates a Fetcher. Authentication is carried by opts.HTTPClient (see NewHTTPClient).
func NewFetcher(opts Options) (*Fetcher, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, model.NewError(model.KindConfig, "invalid exclude pattern %q", pattern)
		}
	}

	client := github.NewClient(opts.HTTPClient)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, model.WrapError(err, model.KindConfig, "invalid GitHub base URL")
		}
		client.BaseURL = u
	}
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}

	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		client:   client,
		host:     client.BaseURL.Host,
		cache:    c,
		cacheTTL: opts.CacheTTL,
		limiter:  opts.Limiter,
		metrics:  opts.Metrics,
		logger:   logger,
		exclude:  opts.Exclude,
	}, nil
}

// FetchReadme returns the decoded README of the repository at repoURL
func (f *Fetcher) FetchReadme(ctx context.Context, repoURL string) (string, error) {
	repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	key := cache.CacheKey("readme", repo.Slug())
	if data, ok := f.cache.Get(key); ok {
		f.metrics.CacheLookup(true)
		f.logger.Debug("readme cache hit", "repo", repo.Slug())
		return string(data), nil
	}
	f.metrics.CacheLookup(false)

	if err := f.limiter.WaitHost(ctx, f.host); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	content, resp, err := f.client.Repositories.GetReadme(ctx, repo.Owner, repo.Name, nil)
	f.metrics.UpstreamRequest("readme", statusOf(resp))
	if err != nil {
		if statusOf(resp) == http.StatusNotFound {
			return "", model.NewError(model.KindNotFound,
				"README file not found in repository '%s'. Please check the URL and ensure the repository has a README", repo.Slug())
		}
		return "", upstreamError(err, resp, "failed to fetch README")
	}

	text, err := content.GetContent()
	if err != nil {
		return "", model.WrapError(err, model.KindUpstream, "decode README content")
	}
	if text == "" {
		return "", model.NewError(model.KindUpstream, "No content found in README API response")
	}

	if err := f.cache.Set(key, []byte(text), f.cacheTTL); err != nil {
		f.logger.Warn("cache readme", "repo", repo.Slug(), "error", err)
	}
	f.logger.Debug("fetched readme", "repo", repo.Slug(), "bytes", len(text))
	return text, nil
}

// FetchFileTree returns every file path on the default branch.
// A truncated listing is returned without error; Truncated reports it.
func (f *Fetcher) FetchFileTree(ctx context.Context, repoURL string) (*FileTree, error) {
	repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	key := cache.CacheKey("tree", repo.Slug())
	if data, ok := f.cache.Get(key); ok {
		var tree FileTree
		if err := json.Unmarshal(data, &tree); err == nil {
			f.metrics.CacheLookup(true)
			f.logger.Debug("tree cache hit", "repo", repo.Slug())
			return &tree, nil
		}
		_ = f.cache.Delete(key)
	}
	f.metrics.CacheLookup(false)

	if err := f.limiter.WaitHost(ctx, f.host); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	info, resp, err := f.client.Repositories.Get(ctx, repo.Owner, repo.Name)
	f.metrics.UpstreamRequest("repository", statusOf(resp))
	if err != nil {
		return nil, upstreamError(err, resp, "could not fetch repo info")
	}
	branch := info.GetDefaultBranch()

	if err := f.limiter.WaitHost(ctx, f.host); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	gitTree, resp, err := f.client.Git.GetTree(ctx, repo.Owner, repo.Name, branch, true)
	f.metrics.UpstreamRequest("tree", statusOf(resp))
	if err != nil {
		return nil, upstreamError(err, resp, "could not fetch repo file tree")
	}

	tree := &FileTree{
		Branch:    branch,
		Truncated: gitTree.GetTruncated(),
		Paths:     make([]string, 0, len(gitTree.Entries)),
	}
	if tree.Truncated {
		f.logger.Warn("file tree is truncated, analysis may be incomplete", "repo", repo.Slug())
	}

	for _, entry := range gitTree.Entries {
		path := entry.GetPath()
		if strings.HasSuffix(path, "/") || entry.GetType() == "tree" {
			continue
		}
		if f.excluded(path) {
			continue
		}
		tree.Paths = append(tree.Paths, path)
	}

	if data, err := json.Marshal(tree); err == nil {
		if err := f.cache.Set(key, data, f.cacheTTL); err != nil {
			f.logger.Warn("cache tree", "repo", repo.Slug(), "error", err)
		}
	}
	f.logger.Debug("fetched file tree", "repo", repo.Slug(), "branch", branch, "files", len(tree.Paths))
	return tree, nil
}

func (f *Fetcher) excluded(path string) bool {
	for _, pattern := range f.exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func statusOf(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

func upstreamError(err error, resp *github.Response, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if code := statusOf(resp); code != 0 {
		return model.WrapError(err, model.KindUpstream, "%s: GitHub API responded with status %d", msg, code)
	}
	return model.WrapError(err, model.KindUpstream, "%s", msg)
}
