// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/meta"
	"github.com/staranto/propcache/internal/output"
	"github.com/staranto/propcache/internal/store"
)

// ShowCommandAction prints the rows of one dataset, served from its snapshot
// when usable.
func ShowCommandAction(ctx context.Context, cmd *cli.Command, st *store.Store) error {
	if cmd.Args().Len() != 1 {
		return errors.New("show requires exactly one dataset name")
	}
	name := cmd.Args().First()

	tbl, err := st.Get(ctx, name)
	if err != nil {
		return err
	}
	log.Debugf("%s has %d rows", name, tbl.Len())

	return output.SliceDiceSpit(tbl, cmd, writer(cmd))
}

// ShowCommandBuilder constructs the cli.Command for "show".
func ShowCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&DatasetCommandBuilder{
		Name:      "show",
		Usage:     "show dataset rows",
		UsageText: `propcache show historical|current [options]`,
		Flags:     NewSliceFlags("show"),
		Action:    ShowCommandAction,
		Meta:      meta,
	}).Build()
}
