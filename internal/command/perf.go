// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/meta"
	"github.com/staranto/propcache/internal/output"
	"github.com/staranto/propcache/internal/perf"
	"github.com/staranto/propcache/internal/store"
	"github.com/staranto/propcache/internal/table"
)

var perfSchema = table.Schema{
	{Name: "dataset", Type: table.String},
	{Name: "rows", Type: table.Int},
	{Name: "iterations", Type: table.Int},
	{Name: "cold", Type: table.String},
	{Name: "cold_stddev", Type: table.String},
	{Name: "warm", Type: table.String},
	{Name: "warm_stddev", Type: table.String},
	{Name: "improvement", Type: table.String},
}

// PerfCommandAction compares cold loads against warm reads. It leaves a fresh
// snapshot behind for every dataset it measures.
func PerfCommandAction(ctx context.Context, cmd *cli.Command, st *store.Store) error {
	iterations := int(cmd.Int("iterations"))

	b := table.NewBuilder(perfSchema)
	err := forEach(cmd, st, func(name string) error {
		// Each warm read uses a new store so it decodes the snapshot file.
		r, err := perf.Measure(ctx, st, name, iterations, perf.WithWarmCache(func() (perf.Cache, error) {
			warm, err := NewStore(cmd)
			if err != nil {
				return nil, err
			}
			return warm, nil
		}))
		if err != nil {
			return err
		}
		return b.Append(
			r.Name,
			r.Rows,
			r.Iterations,
			elapsed(r.ColdMean),
			elapsed(r.ColdStdDev),
			elapsed(r.WarmMean),
			elapsed(r.WarmStdDev),
			fmt.Sprintf("%.1f%%", r.Improvement),
		)
	})

	// Report whatever was measured even when a dataset failed.
	tbl, berr := b.Build()
	if berr != nil {
		return berr
	}
	opts := output.OptionsFromCommand(cmd)
	opts.Titles = true
	if serr := output.Spit(tbl, opts, writer(cmd)); serr != nil {
		return serr
	}
	return err
}

// PerfCommandBuilder constructs the cli.Command for "perf".
func PerfCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return (&DatasetCommandBuilder{
		Name:      "perf",
		Usage:     "compare cold loads against warm snapshot reads",
		UsageText: `propcache perf [historical|current]... [options]`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"n"},
				Usage:   "number of cold/warm rounds per dataset",
				Value:   3,
				Validator: func(value int) error {
					return FlagValidators(value, PositiveValidator)
				},
			},
		},
		Action: PerfCommandAction,
		Meta:   meta,
	}).Build()
}
