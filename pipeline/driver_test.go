/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chainguard.dev/touchup/agents/textgen"
	"chainguard.dev/touchup/repos/githubsource"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func first(int) int { return 0 }

func newTestDriver(t *testing.T, src Source, sync Synchronizer, gen textgen.Interface, opts ...Option) *Driver {
	t.Helper()
	d, err := NewDriver(DefaultConfig(), src, sync, gen, append([]Option{WithChooser(first)}, opts...)...)
	if err != nil {
		t.Fatalf("NewDriver() error = %v", err)
	}
	return d
}

func TestRunPublishesAcceptedEdit(t *testing.T) {
	r := repo("hello")
	ws := newFakeWorkspace("hello", map[string]string{"README.md": "# Hello\nThis is a test.\n"})
	sync := &fakeSync{workspaces: map[string]*fakeWorkspace{r.CloneURL: ws}}
	gen := editor(func(string) string {
		return "\n# Hello\n\nThis is a small test project.\n\n"
	}, "Expanded the description.")

	d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{r}}, sync, gen, WithSummarizer(gen))
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []Outcome{{Repository: "octocat/hello", State: StatePublished, Commit: "commit-1"}}
	if diff := cmp.Diff(want, rep.Outcomes); diff != "" {
		t.Errorf("outcomes (-want +got):\n%s", diff)
	}
	if got, want := ws.files["README.md"], "# Hello\n\nThis is a small test project.\n"; got != want {
		t.Errorf("README.md = %q, wanted %q", got, want)
	}
	wantCalls := []string{
		"stage README.md",
		"commit Automated update for hello: Expanded the description.",
		"push",
	}
	if diff := cmp.Diff(wantCalls, ws.calls); diff != "" {
		t.Errorf("calls (-want +got):\n%s", diff)
	}
}

func TestRunWithoutSummarizerUsesFallback(t *testing.T) {
	r := repo("hello")
	ws := newFakeWorkspace("hello", map[string]string{"README.md": "Hello"})
	sync := &fakeSync{workspaces: map[string]*fakeWorkspace{r.CloneURL: ws}}
	gen := editor(func(string) string { return "Hello world" }, "unused")

	d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{r}}, sync, gen)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got, want := ws.calls[1], "commit Automated update for hello: Auto-edited README"; got != want {
		t.Errorf("commit call = %q, wanted %q", got, want)
	}
	if got := ws.files["README.md"]; got != "Hello world" {
		t.Errorf("README.md = %q, wanted %q", got, "Hello world")
	}
}

func TestRunRejectedCandidateTouchesNothing(t *testing.T) {
	tests := []struct {
		name     string
		original string
		edit     func(string) string
		reason   Reason
	}{{
		name:     "identical",
		original: "# Hello\n\nThis is a test.\n",
		edit:     func(content string) string { return content },
		reason:   ReasonUnchanged,
	}, {
		// The proposal comes back without the trailing newline.
		name:     "identical but trimmed",
		original: "# Hello\n",
		edit:     func(string) string { return "  # Hello  \n\n" },
		reason:   ReasonUnchanged,
	}, {
		name:     "identical with blank lines at the end",
		original: "# Hello world\n\n",
		edit:     func(content string) string { return content },
		reason:   ReasonUnchanged,
	}, {
		name:     "identical with CRLF ending",
		original: "# Hello world\r\n",
		edit:     func(content string) string { return content },
		reason:   ReasonUnchanged,
	}, {
		name:     "truncated",
		original: "# Hello\n\nThis is a longer test file.\n",
		edit:     func(string) string { return "# Hello" },
		reason:   ReasonTooShort,
	}, {
		name:     "empty",
		original: "Hello",
		edit:     func(string) string { return "\n\n" },
		reason:   ReasonTooShort,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := repo("hello")
			ws := newFakeWorkspace("hello", map[string]string{"README.md": tt.original})
			sync := &fakeSync{workspaces: map[string]*fakeWorkspace{r.CloneURL: ws}}

			d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{r}}, sync, editor(tt.edit, "s"))
			rep, err := d.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			want := []Outcome{{Repository: "octocat/hello", State: StateSkipped, Reason: string(tt.reason)}}
			if diff := cmp.Diff(want, rep.Outcomes); diff != "" {
				t.Errorf("outcomes (-want +got):\n%s", diff)
			}
			if len(ws.calls) != 0 {
				t.Errorf("version control calls = %v, wanted none", ws.calls)
			}
			if got := ws.files["README.md"]; got != tt.original {
				t.Errorf("README.md = %q, wanted it unchanged", got)
			}
		})
	}
}

func TestRunMissingTargetFileIsSkipped(t *testing.T) {
	r := repo("empty")
	ws := newFakeWorkspace("empty", nil)
	sync := &fakeSync{workspaces: map[string]*fakeWorkspace{r.CloneURL: ws}}
	gen := textgen.Func(func(context.Context, textgen.Request) (string, error) {
		t.Error("generator called for a repository without README.md")
		return "", nil
	})

	d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{r}}, sync, gen)
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []Outcome{{Repository: "octocat/empty", State: StateSkipped, Reason: "missing README.md"}}
	if diff := cmp.Diff(want, rep.Outcomes); diff != "" {
		t.Errorf("outcomes (-want +got):\n%s", diff)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	a, b, c := repo("a"), repo("b"), repo("c")
	wsA := newFakeWorkspace("a", map[string]string{"README.md": "Hello"})
	wsC := newFakeWorkspace("c", map[string]string{"README.md": "Hello"})
	syncErr := errors.New("authentication required")
	sync := &fakeSync{
		workspaces: map[string]*fakeWorkspace{a.CloneURL: wsA, c.CloneURL: wsC},
		errs:       map[string]error{b.CloneURL: syncErr},
	}
	gen := editor(func(string) string { return "Hello world" }, "Expanded greeting")

	d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{a, b, c}}, sync, gen)
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []Outcome{
		{Repository: "octocat/a", State: StatePublished, Commit: "commit-1"},
		{Repository: "octocat/b", State: StateFailed},
		{Repository: "octocat/c", State: StatePublished, Commit: "commit-1"},
	}
	if diff := cmp.Diff(want, rep.Outcomes, cmpopts.IgnoreFields(Outcome{}, "Err")); diff != "" {
		t.Errorf("outcomes (-want +got):\n%s", diff)
	}
	if !errors.Is(rep.Outcomes[1].Err, syncErr) {
		t.Errorf("failure = %v, wanted it to wrap %v", rep.Outcomes[1].Err, syncErr)
	}
	if diff := cmp.Diff([]string{a.CloneURL, b.CloneURL, c.CloneURL}, sync.synced); diff != "" {
		t.Errorf("synced (-want +got):\n%s", diff)
	}
	if rep.Count(StatePublished) != 2 || rep.Count(StateFailed) != 1 || rep.Count(StateSkipped) != 0 {
		t.Errorf("counts = %d published, %d failed, %d skipped",
			rep.Count(StatePublished), rep.Count(StateFailed), rep.Count(StateSkipped))
	}
}

func TestRunStepFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(*fakeWorkspace)
		gen   textgen.Interface
		calls []string
		step  string
	}{{
		name:  "read",
		setup: func(ws *fakeWorkspace) { ws.readErr = boom },
	}, {
		name: "generate",
		gen: textgen.Func(func(context.Context, textgen.Request) (string, error) {
			return "", boom
		}),
	}, {
		name:  "write",
		setup: func(ws *fakeWorkspace) { ws.writeErr = boom },
	}, {
		name:  "commit",
		setup: func(ws *fakeWorkspace) { ws.commitErr = boom },
		calls: []string{"stage README.md", "commit Automated update for hello: Auto-edited README"},
		step:  StepCommit,
	}, {
		name:  "push",
		setup: func(ws *fakeWorkspace) { ws.pushErr = boom },
		calls: []string{"stage README.md", "commit Automated update for hello: Auto-edited README", "push"},
		step:  StepPush,
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := repo("hello")
			ws := newFakeWorkspace("hello", map[string]string{"README.md": "Hello"})
			if tt.setup != nil {
				tt.setup(ws)
			}
			gen := tt.gen
			if gen == nil {
				gen = editor(func(string) string { return "Hello world" }, "")
			}
			sync := &fakeSync{workspaces: map[string]*fakeWorkspace{r.CloneURL: ws}}

			d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{r}}, sync, gen)
			rep, err := d.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(rep.Outcomes) != 1 {
				t.Fatalf("outcomes = %v, wanted one", rep.Outcomes)
			}
			out := rep.Outcomes[0]
			if out.State != StateFailed || !errors.Is(out.Err, boom) {
				t.Errorf("outcome = %+v, wanted FAILED wrapping %v", out, boom)
			}
			if diff := cmp.Diff(tt.calls, ws.calls, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("calls (-want +got):\n%s", diff)
			}
			if tt.step != "" {
				var perr *PublishError
				if !errors.As(out.Err, &perr) || perr.Step != tt.step {
					t.Errorf("error = %v, wanted a %s PublishError", out.Err, tt.step)
				}
			}
		})
	}
}

func TestRunFailedPushLeavesEditInPlace(t *testing.T) {
	r := repo("hello")
	ws := newFakeWorkspace("hello", map[string]string{"README.md": "Hello"})
	ws.pushErr = errors.New("non-fast-forward update")
	sync := &fakeSync{workspaces: map[string]*fakeWorkspace{r.CloneURL: ws}}

	d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{r}}, sync,
		editor(func(string) string { return "Hello world" }, ""))
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := ws.files["README.md"]; got != "Hello world" {
		t.Errorf("README.md = %q, wanted the accepted edit to stay", got)
	}
}

func TestRunDiscoveryFailure(t *testing.T) {
	listErr := errors.New("bad credentials")
	sync := &fakeSync{}
	gen := editor(strings.ToUpper, "")

	d := newTestDriver(t, &fakeSource{err: listErr}, sync, gen)
	rep, err := d.Run(context.Background())
	if !errors.Is(err, ErrDiscovery) || !errors.Is(err, listErr) {
		t.Errorf("Run() error = %v, wanted %v wrapping %v", err, ErrDiscovery, listErr)
	}
	if len(rep.Outcomes) != 0 {
		t.Errorf("outcomes = %v, wanted none", rep.Outcomes)
	}
	if len(sync.synced) != 0 {
		t.Errorf("synced = %v, wanted nothing", sync.synced)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sync := &fakeSync{}
	d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{repo("a"), repo("b")}}, sync,
		editor(strings.ToUpper, ""))
	rep, err := d.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Outcomes) != 0 || len(sync.synced) != 0 {
		t.Errorf("outcomes = %v, synced = %v, wanted nothing processed", rep.Outcomes, sync.synced)
	}
}

func TestRunNoRepositories(t *testing.T) {
	d := newTestDriver(t, &fakeSource{}, &fakeSync{}, editor(strings.ToUpper, ""))
	rep, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Outcomes) != 0 {
		t.Errorf("outcomes = %v, wanted none", rep.Outcomes)
	}
}

func TestRunRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	a, b, c := repo("a"), repo("b"), repo("c")
	sync := &fakeSync{
		workspaces: map[string]*fakeWorkspace{
			a.CloneURL: newFakeWorkspace("a", map[string]string{"README.md": "Hello"}),
			b.CloneURL: newFakeWorkspace("b", map[string]string{"README.md": "Hello world"}),
		},
		errs: map[string]error{c.CloneURL: errors.New("gone")},
	}
	gen := editor(func(string) string { return "Hello world" }, "")

	d := newTestDriver(t, &fakeSource{repos: []githubsource.Repository{a, b, c}}, sync, gen, WithMetrics(m))
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, tt := range []struct {
		c    prometheus.Collector
		want float64
	}{
		{m.repositories.WithLabelValues(string(StatePublished)), 1},
		{m.repositories.WithLabelValues(string(StateSkipped)), 1},
		{m.repositories.WithLabelValues(string(StateFailed)), 1},
		{m.decisions.WithLabelValues(string(ReasonAccepted)), 1},
		{m.decisions.WithLabelValues(string(ReasonUnchanged)), 1},
		{m.runs.WithLabelValues("success"), 1},
	} {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%v = %v, wanted %v", tt.c, got, tt.want)
		}
	}
	if testutil.ToFloat64(m.lastRun) == 0 {
		t.Error("last run timestamp not set")
	}

	failing := newTestDriver(t, &fakeSource{err: errors.New("down")}, &fakeSync{}, gen, WithMetrics(m))
	if _, err := failing.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, wanted discovery failure")
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("discovery_failed")); got != 1 {
		t.Errorf("discovery_failed runs = %v, wanted 1", got)
	}
}

func TestNewDriverErrors(t *testing.T) {
	gen := editor(strings.ToUpper, "")
	src, sync := &fakeSource{}, &fakeSync{}
	withConfig := func(mutate func(*Config)) Config {
		cfg := DefaultConfig()
		mutate(&cfg)
		return cfg
	}

	tests := []struct {
		name string
		cfg  Config
		src  Source
		sync Synchronizer
		gen  textgen.Interface
	}{
		{name: "empty target", cfg: withConfig(func(c *Config) { c.TargetFile = "" }), src: src, sync: sync, gen: gen},
		{name: "escaping target", cfg: withConfig(func(c *Config) { c.TargetFile = "../README.md" }), src: src, sync: sync, gen: gen},
		{name: "absolute target", cfg: withConfig(func(c *Config) { c.TargetFile = "/etc/passwd" }), src: src, sync: sync, gen: gen},
		{name: "zero budget", cfg: withConfig(func(c *Config) { c.GenerationTokenBudget = 0 }), src: src, sync: sync, gen: gen},
		{name: "zero summary budget", cfg: withConfig(func(c *Config) { c.SummaryTokenBudget = 0 }), src: src, sync: sync, gen: gen},
		{name: "negative temperature", cfg: withConfig(func(c *Config) { c.Temperature = textgen.Float(-1) }), src: src, sync: sync, gen: gen},
		{name: "ratio above one", cfg: withConfig(func(c *Config) { c.AcceptanceLengthRatio = 1.5 }), src: src, sync: sync, gen: gen},
		{name: "nil source", cfg: DefaultConfig(), sync: sync, gen: gen},
		{name: "nil synchronizer", cfg: DefaultConfig(), src: src, gen: gen},
		{name: "nil generator", cfg: DefaultConfig(), src: src, sync: sync},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDriver(tt.cfg, tt.src, tt.sync, tt.gen); err == nil {
				t.Error("NewDriver() error = nil, wanted error")
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
	cfg := DefaultConfig()
	cfg.TargetFile = "docs/GUIDE.md"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate(docs/GUIDE.md) = %v", err)
	}
}

func TestRestoreTrailingSpace(t *testing.T) {
	tests := []struct {
		original, candidate, want string
	}{
		{original: "# Hi\n", candidate: "# Hi", want: "# Hi\n"},
		{original: "# Hi\n\n", candidate: "# Hi", want: "# Hi\n\n"},
		{original: "# Hi\r\n", candidate: "# Hello", want: "# Hello\r\n"},
		{original: "# Hi", candidate: "# Hello\n", want: "# Hello"},
		{original: "# Hi\n", candidate: "", want: ""},
	}
	for _, tt := range tests {
		if got := restoreTrailingSpace(tt.original, tt.candidate); got != tt.want {
			t.Errorf("restoreTrailingSpace(%q, %q) = %q, wanted %q", tt.original, tt.candidate, got, tt.want)
		}
	}
}
