/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ollamagen implements textgen.Interface against a local or remote
// Ollama server through github.com/tmc/langchaingo/llms/ollama.
//
//	llm, err := ollama.New(ollama.WithServerURL(url), ollama.WithModel("llama3.2"))
//	gen, err := ollamagen.New(llm, "llama3.2")
//
// The Ollama client always sends a temperature, so requests without one use
// DefaultTemperature rather than the server's own default.
package ollamagen
