// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package table provides the typed, immutable in-memory table that datasets
// are loaded into and snapshots are decoded into.
package table
