// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

// Package keystore persists the optional static-map API credential.
//
// The credential is a single plaintext string. The Store interface keeps the
// pipeline testable without touching a filesystem.
package keystore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store reads and writes a single credential string.
type Store interface {
	// Read returns the stored credential, or "" if none was saved yet.
	Read() (string, error)

	// Write replaces the stored credential.
	Write(key string) error
}

const keyFile = "apikey"

// FileStore keeps the credential in a plaintext file under a data directory.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed store rooted at the given data directory.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) path() string {
	return filepath.Join(s.root, keyFile)
}

// Read returns the stored credential. A missing file is not an error.
func (s *FileStore) Read() (string, error) {
	data, err := os.ReadFile(filepath.Clean(s.path()))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}

		return "", fmt.Errorf("reading api key file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// Write stores the credential, creating the data directory if needed.
func (s *FileStore) Write(key string) error {
	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return fmt.Errorf("setting up key store: %w", err)
	}

	if err := os.WriteFile(s.path(), []byte(strings.TrimSpace(key)+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing api key file: %w", err)
	}

	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	Key string
}

// Read returns the in-memory credential.
func (s *MemStore) Read() (string, error) {
	return s.Key, nil
}

// Write replaces the in-memory credential.
func (s *MemStore) Write(key string) error {
	s.Key = key

	return nil
}
