// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/meta"
	"github.com/staranto/propcache/internal/output"
	"github.com/staranto/propcache/internal/store"
	"github.com/staranto/propcache/internal/table"
)

var checkSchema = table.Schema{
	{Name: "dataset", Type: table.String},
	{Name: "present", Type: table.Bool},
	{Name: "usable", Type: table.Bool},
	{Name: "age", Type: table.String},
	{Name: "modified", Type: table.String},
	{Name: "size", Type: table.String},
	{Name: "rows", Type: table.Int},
	{Name: "path", Type: table.String},
	{Name: "source", Type: table.String},
}

// CheckCommandAction reports snapshot status. It fails when any requested
// snapshot is absent. With --verify each dataset is also loaded through the
// store and its row count reported.
func CheckCommandAction(ctx context.Context, cmd *cli.Command, st *store.Store) error {
	var (
		result  *multierror.Error
		missing []string
	)

	b := table.NewBuilder(checkSchema)
	for _, name := range targets(cmd, st) {
		s, err := st.Status(name)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		rec := map[string]any{
			"dataset": s.Name,
			"present": s.Present,
			"usable":  s.Usable,
			"path":    s.Path,
			"source":  s.Source,
		}
		if s.Present {
			rec["age"] = fmt.Sprintf("%.1fh", s.Age.Hours())
			rec["modified"] = humanize.Time(s.ModTime)
			rec["size"] = humanize.Bytes(uint64(s.Size))
			if !s.Usable {
				log.Warnf("%s snapshot is older than %s", name, st.Threshold())
			}
		} else {
			missing = append(missing, name)
		}

		if cmd.Bool("verify") {
			tbl, err := st.Get(ctx, name)
			if err != nil {
				result = multierror.Append(result, err)
			} else {
				rec["rows"] = tbl.Len()
			}
		}

		if err := b.AppendRecord(rec); err != nil {
			return err
		}
	}

	tbl, err := b.Build()
	if err != nil {
		return err
	}

	opts := output.OptionsFromCommand(cmd)
	opts.Titles = true
	if !cmd.Bool("verify") {
		opts.Columns = []string{"dataset", "present", "usable", "age", "modified", "size", "path"}
	}
	if err := output.Spit(tbl, opts, writer(cmd)); err != nil {
		return err
	}

	if len(missing) > 0 {
		result = multierror.Append(result, fmt.Errorf("snapshot not found: %s", strings.Join(missing, ", ")))
	}
	return result.ErrorOrNil()
}

// CheckCommandBuilder constructs the cli.Command for "check".
func CheckCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&DatasetCommandBuilder{
		Name:      "check",
		Usage:     "report snapshot presence, age and freshness",
		UsageText: `propcache check [historical|current]... [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "also load each dataset and report its row count",
				Value: false,
			},
		},
		Action: CheckCommandAction,
		Meta:   meta,
	}).Build()
}
