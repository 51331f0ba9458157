// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"time"

	"github.com/apex/log"

	"github.com/staranto/propcache/internal/cacheutil"
)

// Status describes a dataset's snapshot from filesystem metadata alone. It
// does not decode the snapshot, so Usable only reflects presence and age.
type Status struct {
	Name    string
	Source  string
	Path    string
	Present bool
	Age     time.Duration
	Usable  bool
	Size    int64
	ModTime time.Time
}

// Status reports on the named dataset's snapshot.
func (s *Store) Status(name string) (Status, error) {
	d, err := s.descriptor(name)
	if err != nil {
		return Status{}, err
	}

	st := Status{Name: d.Name, Source: d.Source}
	if s.disabled {
		return st, nil
	}

	st.Path = s.path(d.Name)
	info, err := cacheutil.Stat(st.Path)
	if err != nil {
		return st, err
	}
	if !info.Exists {
		return st, nil
	}

	st.Present = true
	st.ModTime = info.ModTime
	st.Size = info.Size
	st.Age = s.age(info.ModTime)
	st.Usable = st.Age < s.threshold
	return st, nil
}

// StatusAll reports on every dataset in order. Datasets whose snapshot could
// not be examined are reported as absent.
func (s *Store) StatusAll() []Status {
	all := make([]Status, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		st, err := s.Status(d.Name)
		if err != nil {
			log.WithError(err).Warnf("failed to examine %s snapshot", d.Name)
		}
		all = append(all, st)
	}
	return all
}
