/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"sync"

	"chainguard.dev/touchup/agents/textgen"
	"chainguard.dev/touchup/repos/githubsource"
)

type fakeSource struct {
	repos []githubsource.Repository
	err   error
}

func (s *fakeSource) List(context.Context) ([]githubsource.Repository, error) {
	return s.repos, s.err
}

// fakeWorkspace is an in-memory working copy that records every
// version-control call.
type fakeWorkspace struct {
	name  string
	files map[string]string

	stageErr, commitErr, pushErr, writeErr, readErr error

	calls   []string
	commits int
}

var _ Workspace = (*fakeWorkspace)(nil)

func newFakeWorkspace(name string, files map[string]string) *fakeWorkspace {
	if files == nil {
		files = map[string]string{}
	}
	return &fakeWorkspace{name: name, files: files}
}

func (w *fakeWorkspace) Name() string { return w.name }

func (w *fakeWorkspace) ReadFile(path string) ([]byte, error) {
	if w.readErr != nil {
		return nil, w.readErr
	}
	s, ok := w.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(s), nil
}

func (w *fakeWorkspace) WriteFile(path string, data []byte) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.files[path] = string(data)
	return nil
}

func (w *fakeWorkspace) Stage(_ context.Context, path string) error {
	w.calls = append(w.calls, "stage "+path)
	return w.stageErr
}

func (w *fakeWorkspace) Commit(_ context.Context, message string) (string, error) {
	w.calls = append(w.calls, "commit "+message)
	if w.commitErr != nil {
		return "", w.commitErr
	}
	w.commits++
	return fmt.Sprintf("commit-%d", w.commits), nil
}

func (w *fakeWorkspace) Push(context.Context) error {
	w.calls = append(w.calls, "push")
	return w.pushErr
}

// fakeSync serves workspaces by clone URL and records the URLs it saw.
type fakeSync struct {
	mu         sync.Mutex
	workspaces map[string]*fakeWorkspace
	errs       map[string]error
	synced     []string
}

func (s *fakeSync) Sync(_ context.Context, url string) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, url)
	if err := s.errs[url]; err != nil {
		return nil, err
	}
	ws, ok := s.workspaces[url]
	if !ok {
		return nil, fmt.Errorf("no workspace for %s", url)
	}
	return ws, nil
}

// editor returns a generator that answers edit requests with edit(prompt
// content) and summary requests with summary.
func editor(edit func(content string) string, summary string) textgen.Interface {
	return textgen.Func(func(_ context.Context, req textgen.Request) (string, error) {
		if req.Purpose == textgen.PurposeSummary {
			return summary, nil
		}
		const lead = "Make small improvements to this code or documentation without changing its functionality:\n\n"
		if len(req.Prompt) < len(lead) {
			return "", fmt.Errorf("unexpected prompt %q", req.Prompt)
		}
		return edit(req.Prompt[len(lead):]), nil
	})
}

func repo(name string) githubsource.Repository {
	return githubsource.Repository{
		Name:          name,
		FullName:      "octocat/" + name,
		CloneURL:      "https://github.com/octocat/" + name + ".git",
		DefaultBranch: "main",
	}
}
