/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubsource lists the public repositories a touchup run visits.
//
// By default the repositories of the authenticated user are listed; WithAccount
// lists another account's public repositories instead. Archived repositories
// are dropped since they cannot be pushed to.
package githubsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"
)

// Repository is the subset of repository metadata the pipeline needs.
type Repository struct {
	// Name is the short repository name, e.g. "hello".
	Name string
	// FullName is owner/name.
	FullName string
	// CloneURL is the HTTPS clone URL.
	CloneURL string
	// DefaultBranch is the branch a fresh clone checks out.
	DefaultBranch string
}

// Source lists repositories from the GitHub REST API.
type Source struct {
	client  *github.Client
	account string
	perPage int
}

// Option configures a Source.
type Option func(*Source) error

// WithAccount lists the public repositories of account rather than those of
// the authenticated user.
func WithAccount(account string) Option {
	return func(s *Source) error {
		s.account = account
		return nil
	}
}

// WithEnterpriseURL points the client at a GitHub Enterprise Server API.
func WithEnterpriseURL(baseURL string) Option {
	return func(s *Source) error {
		if baseURL == "" {
			return nil
		}
		c, err := s.client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return fmt.Errorf("parsing enterprise URL %q: %w", baseURL, err)
		}
		s.client = c
		return nil
	}
}

// WithPageSize sets how many repositories are requested per page (1-100).
func WithPageSize(n int) Option {
	return func(s *Source) error {
		if n < 1 || n > 100 {
			return fmt.Errorf("page size must be between 1 and 100, got %d", n)
		}
		s.perPage = n
		return nil
	}
}

// New creates a Source. A nil token source makes unauthenticated requests,
// which only works together with WithAccount.
func New(ctx context.Context, ts oauth2.TokenSource, opts ...Option) (*Source, error) {
	var client *github.Client
	if ts != nil {
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}
	s := &Source{client: client, perPage: 100}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if ts == nil && s.account == "" {
		return nil, errors.New("listing the authenticated user's repositories requires a token")
	}
	return s, nil
}

// List returns every public, non-archived repository across all pages, in
// the order the API returns them. Any failure aborts the listing.
func (s *Source) List(ctx context.Context) ([]Repository, error) {
	log := clog.FromContext(ctx)
	var out []Repository
	for page := 1; page != 0; {
		repos, resp, err := s.listPage(ctx, page)
		if err != nil {
			return nil, describe(err)
		}
		for _, r := range repos {
			if r.GetArchived() {
				log.With("repo", r.GetFullName()).Debug("Skipping archived repository")
				continue
			}
			if r.GetPrivate() {
				continue
			}
			out = append(out, Repository{
				Name:          r.GetName(),
				FullName:      r.GetFullName(),
				CloneURL:      r.GetCloneURL(),
				DefaultBranch: r.GetDefaultBranch(),
			})
		}
		page = resp.NextPage
	}
	log.Infof("Discovered %d repositories", len(out))
	return out, nil
}

func (s *Source) listPage(ctx context.Context, page int) ([]*github.Repository, *github.Response, error) {
	lo := github.ListOptions{Page: page, PerPage: s.perPage}
	if s.account != "" {
		return s.client.Repositories.ListByUser(ctx, s.account, &github.RepositoryListByUserOptions{
			Type:        "owner",
			ListOptions: lo,
		})
	}
	return s.client.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		Type:        "public",
		ListOptions: lo,
	})
}

func describe(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return fmt.Errorf("listing repositories: %d %s: %w", ghErr.Response.StatusCode, ghErr.Message, err)
	}
	return fmt.Errorf("listing repositories: %w", err)
}
