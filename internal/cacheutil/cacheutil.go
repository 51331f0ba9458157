// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
)

// TempSuffix marks files that are still being written.
const TempSuffix = ".tmp"

// Info describes a cache file on disk.
type Info struct {
	Path    string
	Exists  bool
	ModTime time.Time
	Size    int64
}

// Dir resolves the base cache directory.
// Precedence:
//  1. PROPCACHE_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/propcache
//
// Returns ("", false) if a base cannot be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("PROPCACHE_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "propcache"), true
	}
	return "", false
}

// Enabled returns true unless PROPCACHE_CACHE explicitly disables it ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("PROPCACHE_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}

// EnsureDir creates dir if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// WriteAtomic writes path by handing fn a temp file in the same directory,
// syncing it and renaming it over path. On any failure the temp file is
// removed and path is left untouched.
func WriteAtomic(path string, fn func(w io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := EnsureDir(dir); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, base+".*"+TempSuffix)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			if rerr := os.Remove(tmp); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
				log.WithError(rerr).Warnf("failed to remove temp file %s", tmp)
			}
		}
	}()

	if err = fn(f); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err = os.Chmod(tmp, 0o644); err != nil { //nolint:mnd
		return fmt.Errorf("failed to chmod %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}

	log.Debugf("wrote cache file %s", path)
	return nil
}

// Remove deletes path. A missing file is not an error. It reports whether a
// file was actually removed.
func Remove(path string) (bool, error) {
	err := os.Remove(path)
	switch {
	case err == nil:
		log.Debugf("removed cache file %s", path)
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}
}

// Stat returns the on-disk metadata for path. A missing file is reported
// through Info.Exists rather than as an error.
func Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{Path: path}, nil
	}
	if err != nil {
		return Info{Path: path}, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return FromFileInfo(path, fi), nil
}

// FromFileInfo builds an Info for an existing file.
func FromFileInfo(path string, fi fs.FileInfo) Info {
	return Info{
		Path:    path,
		Exists:  true,
		ModTime: fi.ModTime(),
		Size:    fi.Size(),
	}
}

// PurgeTemp removes temp files in dir whose modification time is older than
// olderThan, as left behind by interrupted writes. A missing dir is a no-op.
// It returns the number of files removed.
func PurgeTemp(dir string, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), TempSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(olderThan) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err == nil {
			log.Debugf("removed orphaned temp file %s", p)
			removed++
		} else {
			log.WithError(err).Warnf("failed to remove temp file %s", p)
		}
	}
	return removed, nil
}
