// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package debugcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupMissingFileReturnsNilAndCachesNegative(t *testing.T) {
	Process().Reset()
	path := filepath.Join(t.TempDir(), "does-not-exist.txt")

	snap := Process().Lookup("k1", path)
	assert.Nil(t, snap)

	// Second lookup within the negative TTL must short-circuit to the same
	// nil result without erroring.
	snap2 := Process().Lookup("k1", path)
	assert.Nil(t, snap2)
}

func TestLookupFindsLastMatchingLine(t *testing.T) {
	Process().Reset()
	dir := t.TempDir()
	path := filepath.Join(dir, "abc.txt")
	content := "some preamble\nautocompact: tokens=100 threshold=200\nautocompact: tokens=150 threshold=200\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	snap := Process().Lookup("k2", path)
	require.NotNil(t, snap)
	assert.Equal(t, 150, snap.Tokens)
	assert.Equal(t, 200, snap.Threshold)
}

func TestLookupCachesUntilMtimeOrSizeChanges(t *testing.T) {
	Process().Reset()
	dir := t.TempDir()
	path := filepath.Join(dir, "abc.txt")
	require.NoError(t, os.WriteFile(path, []byte("autocompact: tokens=1 threshold=2\n"), 0o644))

	first := Process().Lookup("k3", path)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.Tokens)

	// Rewrite with new content but force a distinguishable mtime so the
	// cache is compelled to notice the change rather than racing on
	// filesystem mtime granularity.
	newer := time.Now().Add(time.Second)
	require.NoError(t, os.WriteFile(path, []byte("autocompact: tokens=9 threshold=10\n"), 0o644))
	require.NoError(t, os.Chtimes(path, newer, newer))

	second := Process().Lookup("k3", path)
	require.NotNil(t, second)
	assert.Equal(t, 9, second.Tokens)
}

func TestLookupReturnsNilWhenNoMatchingLine(t *testing.T) {
	Process().Reset()
	dir := t.TempDir()
	path := filepath.Join(dir, "abc.txt")
	require.NoError(t, os.WriteFile(path, []byte("nothing relevant here\n"), 0o644))

	snap := Process().Lookup("k4", path)
	assert.Nil(t, snap)
}
