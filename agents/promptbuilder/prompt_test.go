/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"maps"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewPrompt(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []string
	}{{
		name:     "no bindings",
		template: "This is a simple prompt with no bindings",
		want:     []string{},
	}, {
		name:     "single binding",
		template: "Analyze this: {{data}}",
		want:     []string{"data"},
	}, {
		name:     "repeated binding",
		template: "First {{data}}, then {{data}} again",
		want:     []string{"data"},
	}, {
		name:     "whitespace inside braces",
		template: "Input: {{ input }}\n\nOutput: {{output_2}}",
		want:     []string{"input", "output_2"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPrompt(stringLiteral(tt.template))
			if err != nil {
				t.Fatalf("NewPrompt() error = %v", err)
			}
			got := slices.Sorted(maps.Keys(p.slots))
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("placeholders mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewPromptErrors(t *testing.T) {
	for _, template := range []string{
		"Unclosed {{data",
		"Empty {{}} binding",
		"Hyphen {{test-case}}",
		"Dot {{test.value}}",
		"Digit first {{1data}}",
	} {
		t.Run(template, func(t *testing.T) {
			if _, err := NewPrompt(stringLiteral(template)); err == nil {
				t.Errorf("NewPrompt(%q) error = nil, wanted error", template)
			}
		})
	}
}

func TestBindTextVerbatim(t *testing.T) {
	content := "# Title\n\n<b>bold</b> & \"quotes\"\n  indented\n"
	p := MustNewPrompt("Improve:\n\n{{content}}")

	got, err := p.MustBindText("content", content).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := "Improve:\n\n" + content; got != want {
		t.Errorf("Build() = %q, wanted %q", got, want)
	}
}

func TestNoTransitiveSubstitution(t *testing.T) {
	p := MustNewPrompt("A={{a}} B={{b}}")
	got, err := p.MustBindText("a", "{{b}}").MustBindText("b", "bee").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := "A={{b}} B=bee"; got != want {
		t.Errorf("Build() = %q, wanted %q", got, want)
	}
}

func TestImmutability(t *testing.T) {
	base := MustNewPrompt("Hello {{name}}")
	bound := base.MustBindText("name", "world")

	if _, err := base.Build(); err == nil {
		t.Error("base.Build() error = nil, wanted unbound placeholder error")
	}
	got, err := bound.Build()
	if err != nil {
		t.Fatalf("bound.Build() error = %v", err)
	}
	if got != "Hello world" {
		t.Errorf("bound.Build() = %q, wanted %q", got, "Hello world")
	}
}

func TestBindErrors(t *testing.T) {
	p := MustNewPrompt("Hello {{name}}")

	if _, err := p.BindText("missing", "x"); err == nil {
		t.Error("BindText(missing) error = nil, wanted error")
	}
	bound := p.MustBindText("name", "x")
	if _, err := bound.BindText("name", "y"); err == nil {
		t.Error("rebinding error = nil, wanted error")
	}
}

type greeting struct {
	name string
}

func (g greeting) Bind(p *Prompt) (*Prompt, error) {
	return p.BindText("name", g.name)
}

func TestRender(t *testing.T) {
	got, err := Render(MustNewPrompt("Hi {{name}}!"), greeting{name: "Ada"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Hi Ada!" {
		t.Errorf("Render() = %q, wanted %q", got, "Hi Ada!")
	}
}

func TestBuildNamesUnboundPlaceholder(t *testing.T) {
	p := MustNewPrompt("{{zeta}} {{alpha}} {{mid}}").MustBindText("alpha", "a")
	_, err := p.Build()
	if err == nil {
		t.Fatal("Build() error = nil, wanted error")
	}
	if want := "unbound placeholder: mid"; err.Error() != want {
		t.Errorf("Build() error = %q, wanted %q", err, want)
	}
}
