// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesSentinelWithoutExplicitWrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewError(KindParseFailed, "claude.ParseSessionFile", "abc.jsonl", cause)

	assert.True(t, errors.Is(err, ErrParseFailed))
	assert.False(t, errors.Is(err, ErrSpawnFailed))
}

func TestErrorUnwrapReturnsCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewError(KindTranscriptUnreadable, "manager.ListTranscripts", "/tmp/x.jsonl", cause)

	assert.Same(t, cause, errors.Unwrap(err))
}

func TestErrorMessageIncludesSubject(t *testing.T) {
	err := NewError(KindProviderUnknown, "manager.Create", "nonesuch", fmt.Errorf("no provider registered"))
	assert.Contains(t, err.Error(), "nonesuch")
	assert.Contains(t, err.Error(), string(KindProviderUnknown))
}

func TestErrorAsRoundTrips(t *testing.T) {
	var target *Error
	err := error(NewError(KindCapabilityUnsupported, "manager.Create", "codex", fmt.Errorf("no resume")))
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, KindCapabilityUnsupported, target.Kind)
}
