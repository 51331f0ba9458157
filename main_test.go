// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/propcache/internal/config"
)

func TestMangleArguments(t *testing.T) {
	_, err := config.Load("internal/config/testdata/propcache.yaml")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "help wins",
			args: []string{"propcache", "show", "current", "@cheap", "-h"},
			want: []string{"propcache", "show", "--help"},
		},
		{
			name: "no set and no defaults",
			args: []string{"propcache", "show", "historical", "--limit", "5"},
			want: []string{"propcache", "show", "historical", "--limit", "5"},
		},
		{
			name: "set expands in place",
			args: []string{"propcache", "show", "historical", "@cheap", "--limit", "5"},
			want: []string{
				"propcache", "show", "historical",
				"--filter", "Purchase price<1500000", "--sort", "Purchase price",
				"--limit", "5",
			},
		},
		{
			name: "unknown set is dropped",
			args: []string{"propcache", "show", "@nope", "current"},
			want: []string{"propcache", "show", "current"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}

func TestRealMain_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROPCACHE_CACHE_DIR", dir)
	t.Setenv("PROPCACHE_CFG", "internal/config/testdata/empty.yaml")
	_, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 0, realMain([]string{"propcache", "--version"}))
	assert.Equal(t, 0, realMain([]string{
		"propcache", "build", "current",
		"--current-source", "internal/dataset/testdata/current.csv",
	}))
	assert.FileExists(t, dir+"/current.avro")

	assert.Equal(t, 2, realMain([]string{"propcache", "show", "rentals"}))
	assert.Equal(t, 2, realMain([]string{
		"propcache", "refresh", "current", "--no-fallback",
		"--current-source", dir + "/missing.csv",
	}))

	t.Setenv("PROPCACHE_CFG", dir+"/nope.yaml")
	assert.Equal(t, 1, realMain([]string{"propcache", "check"}))
}
