// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package version holds the build version, set at link time with
//
//	-ldflags "-X github.com/staranto/propcache/internal/version.Version=v1.2.3"
package version

// Version is the propcache release.
var Version = "dev"
