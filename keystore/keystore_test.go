// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package keystore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "civiceye")
	store := NewFileStore(root)

	// Missing file reads as empty, not as an error.
	key, err := store.Read()
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, store.Write("  AIzaSyTest123  "))

	key, err = store.Read()
	require.NoError(t, err)
	assert.Equal(t, "AIzaSyTest123", key)

	// The key file should not be world readable.
	info, err := os.Stat(filepath.Join(root, "apikey"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreOverwrite(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Write("first"))
	require.NoError(t, store.Write("second"))

	key, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "second", key)
}
