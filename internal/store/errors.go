// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import "fmt"

// ConfigurationError reports an unknown dataset name or invalid options.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// DataUnavailableError is returned when no usable snapshot exists and the
// loader could not produce the dataset.
type DataUnavailableError struct {
	Dataset string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("dataset %s unavailable: %v", e.Dataset, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// snapshotCorruptError is logged when a snapshot exists but cannot be used.
type snapshotCorruptError struct {
	path string
	err  error
}

func (e *snapshotCorruptError) Error() string {
	return fmt.Sprintf("snapshot %s unusable: %v", e.path, e.err)
}

func (e *snapshotCorruptError) Unwrap() error {
	return e.err
}

// persistenceWriteError is logged when a fresh table could not be saved.
type persistenceWriteError struct {
	path string
	err  error
}

func (e *persistenceWriteError) Error() string {
	return fmt.Sprintf("failed to persist snapshot %s: %v", e.path, e.err)
}

func (e *persistenceWriteError) Unwrap() error {
	return e.err
}
