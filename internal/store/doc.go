// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package store keeps one snapshot file per dataset and decides when it can
// be reused.
//
// A snapshot is usable when the file exists, decodes against the dataset
// schema and is younger than the freshness threshold, checked in that order.
// Its age comes from the file's modification time alone. Anything else sends
// Get to the Loader, whose result is written back atomically before it is
// returned. Snapshot and write failures are logged and never reach callers.
//
// After a snapshot has been decoded or written, the Store keeps the table in
// memory keyed by the file's modification time and size. While both match, a
// Get reuses that table without decoding the file again. Snapshots are only
// ever replaced by rename, so any rewrite changes the key.
//
// Concurrent Get calls for one dataset share a single load, as do concurrent
// Refresh calls. The shared load does not inherit any caller's cancellation;
// a caller whose context ends stops waiting and gets its context error.
package store
