// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/config"
	"github.com/staranto/propcache/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the propcache
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing config file is normal; flags then fall back to env and
	// defaults. An explicitly named one must load.
	c, err := config.Load()
	if err != nil {
		if os.Getenv("PROPCACHE_CFG") != "" {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		log.Debugf("no config: %v", err)
	} else {
		cfg = c
	}
	config.Config.Namespace = ns

	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "propcache",
		Usage: "Property dataset snapshot cache",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "propcache version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		BuildCommandBuilder(app, meta),
		CheckCommandBuilder(app, meta),
		ClearCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
		PerfCommandBuilder(app, meta),
		RefreshCommandBuilder(app, meta),
		ShowCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
