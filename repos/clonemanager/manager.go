/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

// DefaultIdentity is the commit author name used when none is configured.
const DefaultIdentity = "touchup-bot"

// Manager owns the working copies under a root directory.
type Manager struct {
	root        string
	tokenSource oauth2.TokenSource
	name        string
	email       string
	signer      git.Signer
}

// Option configures a Manager.
type Option func(*Manager) error

// WithTokenSource authenticates clone, pull and push with the token as the
// basic-auth password. Without it remotes are accessed anonymously.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(m *Manager) error {
		if ts == nil {
			return errors.New("token source cannot be nil")
		}
		m.tokenSource = ts
		return nil
	}
}

// WithIdentity sets the commit author. When email is empty it is derived from
// name as a GitHub noreply address.
func WithIdentity(name, email string) Option {
	return func(m *Manager) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("identity cannot be empty")
		}
		m.name = name
		m.email = strings.TrimSpace(email)
		return nil
	}
}

// WithSigner signs every commit with s.
func WithSigner(s git.Signer) Option {
	return func(m *Manager) error {
		if s == nil {
			return errors.New("signer cannot be nil")
		}
		m.signer = s
		return nil
	}
}

// New constructs a Manager rooted at root, creating the directory if needed.
func New(ctx context.Context, root string, opts ...Option) (*Manager, error) {
	if root == "" {
		return nil, errors.New("root directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", root, err)
	}
	m := &Manager{root: abs, name: DefaultIdentity}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if m.email == "" {
		m.email = m.name + "@users.noreply.github.com"
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating root %q: %w", abs, err)
	}
	clog.FromContext(ctx).With("root", abs).Debug("Clone manager ready")
	return m, nil
}

// Root returns the absolute directory holding the working copies.
func (m *Manager) Root() string {
	return m.root
}

// RepoName derives the working copy name from a clone URL: the last path
// element without a trailing ".git".
func RepoName(cloneURL string) string {
	u := strings.TrimRight(cloneURL, "/")
	if i := strings.LastIndexAny(u, "/:"); i >= 0 {
		u = u[i+1:]
	}
	return strings.TrimSuffix(u, ".git")
}

// Sync makes the working copy for cloneURL current. A missing copy is cloned;
// an existing one is fast-forward pulled from origin. A remote with nothing
// new is not an error.
func (m *Manager) Sync(ctx context.Context, cloneURL string) (*Workspace, error) {
	name := RepoName(cloneURL)
	if name == "" || name == "." || name == ".." {
		return nil, fmt.Errorf("cannot derive repository name from %q", cloneURL)
	}
	path := filepath.Join(m.root, name)
	log := clog.FromContext(ctx).With("repo", name).With("path", path)

	auth, err := m.authForRemote()
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	var repo *git.Repository
	switch _, statErr := os.Stat(path); {
	case errors.Is(statErr, os.ErrNotExist):
		log.Infof("Cloning repository %s", cloneURL)
		repo, err = git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
			URL:  cloneURL,
			Auth: auth,
		})
		if err != nil {
			os.RemoveAll(path)
			return nil, fmt.Errorf("cloning %s: %w", cloneURL, err)
		}

	case statErr != nil:
		return nil, fmt.Errorf("checking %s: %w", path, statErr)

	default:
		repo, err = git.PlainOpen(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		if err := m.pull(ctx, repo, auth); err != nil {
			return nil, err
		}
	}

	return &Workspace{manager: m, name: name, path: path, repo: repo}, nil
}

func (m *Manager) pull(ctx context.Context, repo *git.Repository, auth transport.AuthMethod) error {
	log := clog.FromContext(ctx)

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	log.Infof("Pulling latest changes for %s", head.Name().Short())
	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    git.DefaultRemoteName,
		ReferenceName: head.Name(),
		Auth:          auth,
	})
	switch {
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		log.Debug("Already up to date")
		return nil
	case err != nil:
		return fmt.Errorf("pulling %s: %w", head.Name().Short(), err)
	}
	return nil
}

// authForRemote returns nil when no token is configured, which lets local and
// public remotes be used anonymously.
func (m *Manager) authForRemote() (transport.AuthMethod, error) {
	if m.tokenSource == nil {
		return nil, nil
	}
	token, err := m.tokenSource.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, nil
	}
	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}
