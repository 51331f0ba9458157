// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/singleflight"

	"github.com/staranto/propcache/internal/cacheutil"
	"github.com/staranto/propcache/internal/dataset"
	"github.com/staranto/propcache/internal/snapshot"
	"github.com/staranto/propcache/internal/table"
)

const (
	// DefaultThreshold is the freshness threshold used when none is set.
	DefaultThreshold = 24 * time.Hour

	// Extension is appended to the dataset name to form the snapshot file.
	Extension = ".avro"

	// orphanAge is how old a temp file must be before InvalidateAll treats
	// it as abandoned by an interrupted write.
	orphanAge = 10 * time.Minute
)

// Options configures a Store.
type Options struct {
	// Dir holds the snapshot files. Required unless Disabled.
	Dir string
	// Threshold is the freshness threshold. Zero means DefaultThreshold.
	Threshold time.Duration
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// Disabled turns the store into a pass-through to the loader.
	Disabled bool
}

// stamp identifies one version of a snapshot file.
type stamp struct {
	modTime time.Time
	size    int64
}

func (st stamp) equal(o stamp) bool {
	return st.size == o.size && st.modTime.Equal(o.modTime)
}

type memo struct {
	stamp stamp
	table *table.Table
}

// Store serves datasets from snapshots, falling back to a Loader.
type Store struct {
	dir         string
	threshold   time.Duration
	now         func() time.Time
	disabled    bool
	loader      dataset.Loader
	descriptors []dataset.Descriptor

	mu    sync.Mutex
	memos map[string]memo
	group singleflight.Group
}

// New returns a Store for the given datasets. With no descriptors the
// standard datasets are used.
func New(opts Options, loader dataset.Loader, descriptors ...dataset.Descriptor) (*Store, error) {
	if loader == nil {
		return nil, configErrorf("a loader is required")
	}
	if opts.Threshold < 0 {
		return nil, configErrorf("threshold must not be negative, got %s", opts.Threshold)
	}
	if opts.Dir == "" && !opts.Disabled {
		return nil, configErrorf("a snapshot directory is required")
	}
	if len(descriptors) == 0 {
		descriptors = dataset.Defaults(nil)
	}

	seen := map[string]bool{}
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, configErrorf("dataset name must not be empty")
		}
		if filepath.Base(d.Name) != d.Name || d.Name == "." || d.Name == ".." {
			return nil, configErrorf("dataset name %q is not a valid file name", d.Name)
		}
		if seen[d.Name] {
			return nil, configErrorf("duplicate dataset %q", d.Name)
		}
		seen[d.Name] = true
		if err := d.Schema.Validate(); err != nil {
			return nil, configErrorf("dataset %s: %v", d.Name, err)
		}
	}

	s := &Store{
		dir:         opts.Dir,
		threshold:   opts.Threshold,
		now:         opts.Now,
		disabled:    opts.Disabled,
		loader:      loader,
		descriptors: append([]dataset.Descriptor(nil), descriptors...),
		memos:       map[string]memo{},
	}
	if s.threshold == 0 {
		s.threshold = DefaultThreshold
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Names returns the configured dataset names in order.
func (s *Store) Names() []string {
	return dataset.Names(s.descriptors)
}

// Threshold returns the freshness threshold in effect.
func (s *Store) Threshold() time.Duration {
	return s.threshold
}

// Dir returns the snapshot directory.
func (s *Store) Dir() string {
	return s.dir
}

// Get returns the dataset, from its snapshot when usable and from the loader
// otherwise.
func (s *Store) Get(ctx context.Context, name string) (*table.Table, error) {
	d, err := s.descriptor(name)
	if err != nil {
		return nil, err
	}

	if tbl, ok := s.usable(d); ok {
		return tbl, nil
	}

	return s.do(ctx, "get/"+name, func(ctx context.Context) (*table.Table, error) {
		// Another caller may have refreshed while this one waited.
		if tbl, ok := s.usable(d); ok {
			return tbl, nil
		}
		return s.reload(ctx, d)
	})
}

// Refresh always loads the dataset from its source and rewrites the snapshot.
func (s *Store) Refresh(ctx context.Context, name string) (*table.Table, error) {
	d, err := s.descriptor(name)
	if err != nil {
		return nil, err
	}

	return s.do(ctx, "refresh/"+name, func(ctx context.Context) (*table.Table, error) {
		return s.reload(ctx, d)
	})
}

// do runs fn once for all concurrent callers of key. The load is detached
// from the cancellation of whichever caller started it; each caller stops
// waiting when its own ctx is done.
func (s *Store) do(ctx context.Context, key string, fn func(context.Context) (*table.Table, error)) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debugf("shared in-flight %s", key)
		}
		return res.Val.(*table.Table), nil
	}
}

// Invalidate removes the dataset's snapshot and memoised table. Removing a
// snapshot that does not exist is not an error.
func (s *Store) Invalidate(name string) error {
	d, err := s.descriptor(name)
	if err != nil {
		return err
	}
	return s.invalidate(d)
}

// InvalidateAll invalidates every dataset and removes temp files left by
// interrupted writes. It attempts every dataset before reporting failures.
func (s *Store) InvalidateAll() error {
	var result *multierror.Error
	for _, d := range s.descriptors {
		if err := s.invalidate(d); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if !s.disabled {
		n, err := cacheutil.PurgeTemp(s.dir, s.now().Add(-orphanAge))
		if err != nil {
			result = multierror.Append(result, err)
		} else if n > 0 {
			log.Infof("removed %d orphaned temp file(s)", n)
		}
	}
	return result.ErrorOrNil()
}

func (s *Store) invalidate(d dataset.Descriptor) error {
	s.forget(d.Name)
	if s.disabled {
		return nil
	}
	removed, err := cacheutil.Remove(s.path(d.Name))
	if err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", d.Name, err)
	}
	if removed {
		log.Infof("invalidated %s", d.Name)
	}
	return nil
}

func (s *Store) descriptor(name string) (dataset.Descriptor, error) {
	d, ok := dataset.Lookup(s.descriptors, name)
	if !ok {
		return dataset.Descriptor{}, configErrorf("unknown dataset %q", name)
	}
	return d, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+Extension)
}

// age is the snapshot age at now. A modification time in the future counts
// as age zero.
func (s *Store) age(modTime time.Time) time.Duration {
	age := s.now().Sub(modTime)
	if age < 0 {
		return 0
	}
	return age
}

// usable returns the snapshot table when the snapshot exists, decodes and is
// fresh.
func (s *Store) usable(d dataset.Descriptor) (*table.Table, bool) {
	if s.disabled {
		return nil, false
	}
	path := s.path(d.Name)
	logger := log.WithFields(log.Fields{"dataset": d.Name, "path": path})

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no snapshot")
		return nil, false
	}
	if err != nil {
		logger.WithError(err).Warn("snapshot unreadable")
		return nil, false
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		logger.WithError(err).Warn("snapshot unreadable")
		return nil, false
	}
	st := stamp{modTime: fi.ModTime(), size: fi.Size()}
	age := s.age(st.modTime)

	if m, ok := s.memo(d.Name); ok && m.stamp.equal(st) {
		if age >= s.threshold {
			logger.WithField("age", age).Debug("snapshot stale")
			return nil, false
		}
		logger.Debug("using memoised snapshot")
		return m.table, true
	}

	tbl, err := s.decode(f, d)
	if err != nil {
		logger.WithError(&snapshotCorruptError{path: path, err: err}).Warn("ignoring snapshot")
		return nil, false
	}
	if age >= s.threshold {
		logger.WithField("age", age).Debug("snapshot stale")
		return nil, false
	}

	s.remember(d.Name, memo{stamp: st, table: tbl})
	logger.WithField("rows", tbl.Len()).Debug("using snapshot")
	return tbl, true
}

func (s *Store) decode(r io.Reader, d dataset.Descriptor) (*table.Table, error) {
	return snapshot.Read(bufio.NewReader(r), d.Name, d.Schema)
}

// reload invokes the loader and persists its result best-effort.
func (s *Store) reload(ctx context.Context, d dataset.Descriptor) (*table.Table, error) {
	start := time.Now()
	tbl, err := s.loader.Load(ctx, d)
	if err != nil {
		return nil, &DataUnavailableError{Dataset: d.Name, Err: err}
	}
	if tbl == nil {
		return nil, &DataUnavailableError{Dataset: d.Name, Err: errors.New("loader returned no table")}
	}
	if got := tbl.Schema(); !got.Equal(d.Schema) {
		return nil, &DataUnavailableError{
			Dataset: d.Name,
			Err:     fmt.Errorf("loader schema %q does not match %q", got, d.Schema),
		}
	}
	log.WithFields(log.Fields{
		"dataset": d.Name,
		"rows":    tbl.Len(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("loaded dataset")

	s.persist(d, tbl)
	return tbl, nil
}

func (s *Store) persist(d dataset.Descriptor, tbl *table.Table) {
	s.forget(d.Name)
	if s.disabled {
		return
	}

	path := s.path(d.Name)
	err := cacheutil.WriteAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if err := snapshot.Write(bw, d.Name, tbl); err != nil {
			return err
		}
		return bw.Flush()
	})
	if err != nil {
		log.WithError(&persistenceWriteError{path: path, err: err}).Warn("continuing without snapshot")
		return
	}

	info, err := cacheutil.Stat(path)
	if err != nil || !info.Exists {
		return
	}
	s.remember(d.Name, memo{stamp: stamp{modTime: info.ModTime, size: info.Size}, table: tbl})
}

func (s *Store) memo(name string) (memo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memos[name]
	return m, ok
}

func (s *Store) remember(name string, m memo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memos[name] = m
}

func (s *Store) forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memos, name)
}
