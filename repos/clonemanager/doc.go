/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package clonemanager keeps one persistent working copy per repository under
// a root directory. A Manager is configured with the token source and commit
// identity for the automation, and Sync hands back a Workspace that:
//   - Is freshly cloned the first time a repository is seen, and fast-forward
//     pulled on every later visit.
//   - Reads and writes files scoped to the working tree.
//   - Stages, commits (optionally signed) and pushes the current branch
//     without forcing.
//
// Working copies are named after the last element of the clone URL, so two
// repositories with the same name from different owners share a directory.
package clonemanager
