// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package codex

// defaultContextWindow is used when a transcript or live stream never
// reports an explicit model_context_window — Codex rollouts usually carry
// one, but older recordings and minimal test fixtures may not.
const defaultContextWindow = 200000
