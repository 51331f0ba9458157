// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/meta"
	"github.com/staranto/propcache/internal/store"
)

// ClearCommandAction removes snapshots and reports how many were removed.
func ClearCommandAction(ctx context.Context, cmd *cli.Command, st *store.Store) error {
	w := writer(cmd)

	present := map[string]bool{}
	for _, s := range st.StatusAll() {
		present[s.Name] = s.Present
	}

	var err error
	removed := 0
	if cmd.Args().Len() == 0 {
		err = st.InvalidateAll()
		for _, name := range st.Names() {
			if present[name] {
				removed++
				fmt.Fprintf(w, "removed %s snapshot\n", name)
			}
		}
	} else {
		err = forEach(cmd, st, func(name string) error {
			if err := st.Invalidate(name); err != nil {
				return err
			}
			if present[name] {
				removed++
				fmt.Fprintf(w, "removed %s snapshot\n", name)
			}
			return nil
		})
	}
	if err != nil {
		return err
	}

	if removed == 0 {
		fmt.Fprintln(w, "no snapshots found")
	} else {
		fmt.Fprintf(w, "cleared %d snapshot(s)\n", removed)
	}
	return nil
}

// ClearCommandBuilder constructs the cli.Command for "clear".
func ClearCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&DatasetCommandBuilder{
		Name:      "clear",
		Usage:     "remove snapshots",
		UsageText: `propcache clear [historical|current]... [options]`,
		Action:    ClearCommandAction,
		Meta:      meta,
	}).Build()
}
