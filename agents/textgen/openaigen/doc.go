/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openaigen implements textgen.Interface on the OpenAI completions
// endpoint using github.com/openai/openai-go.
//
//	client := openai.NewClient(option.WithAPIKey(key), option.WithMaxRetries(0))
//	gen, err := openaigen.New(client, openaigen.WithModel("gpt-3.5-turbo-instruct"))
//	text, err := gen.Complete(ctx, textgen.Request{Prompt: p, MaxTokens: 500})
package openaigen
