// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when the requested artifact key does not exist.
var ErrNotFound = errors.New("artifact not found")

// Store is the artifact storage contract. Keys are slash-separated and
// relative ("backupID/database/collection"). Implementations must be safe
// for concurrent use.
type Store interface {
	// Put writes data under key, replacing any existing artifact.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the artifact stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the artifact under key. Missing keys return ErrNotFound.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every artifact whose key starts with prefix and
	// returns the number of artifacts removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// List returns the keys under prefix in lexical order. An empty prefix
	// lists every artifact.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists reports whether an artifact is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// dataSuffix is appended to leaf files on disk. A manifest key "<id>" and
// the artifact directory "<id>/..." would otherwise collide on the
// filesystem, which object stores never have to care about.
const dataSuffix = ".dat"

// LocalStore persists artifacts as files under a root directory. Each key
// segment becomes a path element, so a backup's artifacts share a directory
// tree rooted at its backup ID.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns a store
// backed by it.
func NewLocalStore(root string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving artifact root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("creating artifact root: %w", err)
	}
	return &LocalStore{root: abs}, nil
}

// Root returns the absolute directory artifacts are stored under.
func (s *LocalStore) Root() string {
	return s.root
}

// resolve maps a key to its absolute file path under the root, rejecting
// keys that would escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("artifact key is empty")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("invalid artifact key %q", key)
		}
	}
	p := filepath.Join(s.root, filepath.FromSlash(key)) + dataSuffix
	if !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return p, nil
}

// Put writes atomically: data lands in a temp file in the target directory
// and is renamed into place, so readers never observe partial artifacts.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("creating artifact temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing artifact %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing artifact %s: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing artifact %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading artifact %s: %w", key, err)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting artifact %s: %w", key, err)
	}
	s.pruneEmptyDirs(filepath.Dir(p))
	return nil
}

func (s *LocalStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), dataSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), dataSuffix)
		if matchesPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking artifact %s: %w", key, err)
	}
	return true, nil
}

// pruneEmptyDirs removes now-empty parents up to the root. Best effort,
// os.Remove refuses non-empty directories so the walk stops there.
func (s *LocalStore) pruneEmptyDirs(dir string) {
	for dir != s.root && strings.HasPrefix(dir, s.root) {
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// matchesPrefix treats prefix as a key-space prefix: "abc" matches "abc"
// and "abc/def" but not "abcdef".
func matchesPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	trimmed := strings.TrimSuffix(prefix, "/")
	return key == trimmed || strings.HasPrefix(key, trimmed+"/")
}
