// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package dataset describes the property datasets and loads them from their
// primary sources.
//
// A source is a local path or an s3://bucket/key URI. The format follows the
// extension: .csv, .xlsx (first sheet) or .json (an array of objects, as
// written by the listing scraper). Historical sales are narrowed to the
// Eastern Suburbs and the last YearsBack years; current listings are
// de-duplicated and their numeric fields normalised. When a source cannot be
// read and Fallback is set, a deterministic sample table is returned instead.
package dataset
