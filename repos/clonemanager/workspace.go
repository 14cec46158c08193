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
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Workspace is a synchronized working copy.
type Workspace struct {
	manager *Manager
	name    string
	path    string
	repo    *git.Repository
}

// Name returns the repository name the working copy is stored under.
func (w *Workspace) Name() string {
	return w.name
}

// Path returns the absolute path of the working tree.
func (w *Workspace) Path() string {
	return w.path
}

// Repo returns the underlying git repository.
func (w *Workspace) Repo() *git.Repository {
	return w.repo
}

// validatePath ensures path doesn't escape the worktree root and returns it
// relative to the root.
func (w *Workspace) validatePath(path string) (string, error) {
	fullPath := filepath.Join(w.path, filepath.Clean(path))
	rel, err := filepath.Rel(w.path, fullPath)
	if err != nil {
		return "", fmt.Errorf("path %q: %w", path, err)
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes worktree", path)
	}
	return rel, nil
}

// openRoot resolves path inside the worktree. Files are then opened through
// the returned root, so symlinks pointing outside the worktree are refused.
func (w *Workspace) openRoot(path string) (*os.Root, string, error) {
	rel, err := w.validatePath(path)
	if err != nil {
		return nil, "", err
	}
	root, err := os.OpenRoot(w.path)
	if err != nil {
		return nil, "", fmt.Errorf("opening worktree: %w", err)
	}
	return root, rel, nil
}

// ReadFile reads a file relative to the working tree root. A missing file
// reports an error satisfying errors.Is(err, os.ErrNotExist).
func (w *Workspace) ReadFile(path string) ([]byte, error) {
	root, rel, err := w.openRoot(path)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	return root.ReadFile(rel)
}

// WriteFile replaces a file relative to the working tree root, keeping the
// permissions of an existing file.
func (w *Workspace) WriteFile(path string, data []byte) error {
	root, rel, err := w.openRoot(path)
	if err != nil {
		return err
	}
	defer root.Close()
	if dir := filepath.Dir(rel); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return root.WriteFile(rel, data, 0o644)
}

// Stage adds path to the index.
func (w *Workspace) Stage(_ context.Context, path string) error {
	if _, err := w.validatePath(path); err != nil {
		return err
	}
	worktree, err := w.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if _, err := worktree.Add(filepath.ToSlash(filepath.Clean(path))); err != nil {
		return fmt.Errorf("staging %s: %w", path, err)
	}
	return nil
}

// Commit records the index with the manager's identity and returns the new
// commit hash. Nothing staged yields git.ErrEmptyCommit.
func (w *Workspace) Commit(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("commit message cannot be empty")
	}
	worktree, err := w.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  w.manager.name,
			Email: w.manager.email,
			When:  time.Now(),
		},
		Signer: w.manager.signer,
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	clog.FromContext(ctx).With("repo", w.name).With("commit", hash.String()).Info("Committed changes")
	return hash.String(), nil
}

// Push publishes the current branch to the same branch on origin. The push is
// never forced; a remote that moved on is reported wrapping
// git.ErrNonFastForwardUpdate.
func (w *Workspace) Push(ctx context.Context) error {
	log := clog.FromContext(ctx).With("repo", w.name)

	head, err := w.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return fmt.Errorf("HEAD is detached at %s", head.Hash())
	}

	auth, err := w.manager.authForRemote()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", head.Name(), head.Name()))
	log.Infof("Pushing %s", refSpec)

	err = w.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: git.DefaultRemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		log.Info("Branch already up to date")
		return nil
	case isNonFastForward(err):
		return fmt.Errorf("pushing %s: %w: %w", head.Name().Short(), git.ErrNonFastForwardUpdate, err)
	default:
		return fmt.Errorf("pushing %s: %w", head.Name().Short(), err)
	}
}

// isNonFastForward reports whether a push was rejected because the remote
// branch moved on. go-git reports this from the push path as text only.
func isNonFastForward(err error) bool {
	return errors.Is(err, git.ErrNonFastForwardUpdate) ||
		errors.Is(err, git.ErrForceNeeded) ||
		strings.Contains(err.Error(), "non-fast-forward update")
}
