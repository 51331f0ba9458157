// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/meta"
	"github.com/staranto/propcache/internal/store"
	"github.com/staranto/propcache/internal/table"
)

// BuildCommandAction populates snapshots. A usable snapshot is left alone
// unless --force is given.
func BuildCommandAction(ctx context.Context, cmd *cli.Command, st *store.Store) error {
	get := st.Get
	verb := "built"
	if cmd.Bool("force") {
		get, verb = st.Refresh, "rebuilt"
	}
	return load(ctx, cmd, st, get, verb)
}

// RefreshCommandAction reloads every requested dataset from its source.
func RefreshCommandAction(ctx context.Context, cmd *cli.Command, st *store.Store) error {
	return load(ctx, cmd, st, st.Refresh, "refreshed")
}

func load(
	ctx context.Context,
	cmd *cli.Command,
	st *store.Store,
	get func(context.Context, string) (*table.Table, error),
	verb string,
) error {
	w := writer(cmd)
	return forEach(cmd, st, func(name string) error {
		start := time.Now()
		tbl, err := get(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s: %s rows in %s\n", verb, name, humanize.Comma(int64(tbl.Len())), elapsed(time.Since(start)))
		return nil
	})
}

// BuildCommandBuilder constructs the cli.Command for "build".
func BuildCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&DatasetCommandBuilder{
		Name:      "build",
		Usage:     "build snapshots that are missing or stale",
		UsageText: `propcache build [historical|current]... [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "rebuild even when the snapshot is fresh",
				Value: false,
			},
		},
		Action: BuildCommandAction,
		Meta:   meta,
	}).Build()
}

// RefreshCommandBuilder constructs the cli.Command for "refresh".
func RefreshCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&DatasetCommandBuilder{
		Name:      "refresh",
		Usage:     "reload datasets from source and rewrite their snapshots",
		UsageText: `propcache refresh [historical|current]... [options]`,
		Action:    RefreshCommandAction,
		Meta:      meta,
	}).Build()
}
