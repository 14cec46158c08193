/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claudegen implements textgen.Interface on the Anthropic Messages
// API. The client may talk to Anthropic directly or to Claude on Vertex AI:
//
//	client := anthropic.NewClient(
//	    vertex.WithGoogleAuth(ctx, region, projectID),
//	)
//	gen, err := claudegen.New(client, claudegen.WithModel("claude-sonnet-4-5"))
//
// Each request is sent as a single user turn and the text blocks of the
// reply are concatenated.
package claudegen
