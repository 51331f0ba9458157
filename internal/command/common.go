// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/aws"
	"github.com/staranto/propcache/internal/cacheutil"
	"github.com/staranto/propcache/internal/config"
	"github.com/staranto/propcache/internal/dataset"
	"github.com/staranto/propcache/internal/meta"
	"github.com/staranto/propcache/internal/store"
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// NewStore builds the Store described by the global flags.
func NewStore(cmd *cli.Command) (*store.Store, error) {
	dir := cmd.String("dir")
	if dir == "" {
		if d, ok := cacheutil.Dir(); ok {
			dir = d
		}
	}
	// cache.enabled and cache.threshold come from the config file when the
	// flags were not given. The file may hold a bare number of hours.
	enabled := cmd.Bool("cache")
	if !cmd.IsSet("cache") {
		v, err := config.GetBool("cache.enabled", true)
		if err != nil {
			return nil, fmt.Errorf("cache.enabled: %w", err)
		}
		enabled = v
	}
	threshold := cmd.Duration("threshold")
	if !cmd.IsSet("threshold") {
		v, err := config.GetDuration("cache.threshold", store.DefaultThreshold)
		if err != nil {
			return nil, fmt.Errorf("cache.threshold: %w", err)
		}
		threshold = v
	}

	disabled := !enabled || !cacheutil.Enabled() || dir == ""
	if disabled {
		log.Debug("snapshots disabled")
	}

	loader := &dataset.SourceLoader{
		Fallback:   cmd.Bool("fallback"),
		YearsBack:  int(cmd.Int("years")),
		AWSOptions: aws.EnvOptions(),
	}

	descriptors := dataset.Defaults(map[string]string{
		dataset.Historical: cmd.String("historical-source"),
		dataset.Current:    cmd.String("current-source"),
	})

	return store.New(store.Options{
		Dir:       dir,
		Threshold: threshold,
		Disabled:  disabled,
	}, loader, descriptors...)
}

// targets returns the dataset names given as arguments, or every dataset when
// there are none.
func targets(cmd *cli.Command, st *store.Store) []string {
	if args := cmd.Args().Slice(); len(args) > 0 {
		return args
	}
	return st.Names()
}

// writer returns where command output goes.
func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// forEach runs fn for every target. A failure for one dataset does not stop
// the others; all failures are returned together.
func forEach(cmd *cli.Command, st *store.Store, fn func(name string) error) error {
	var result *multierror.Error
	for _, name := range targets(cmd, st) {
		if err := fn(name); err != nil {
			log.WithError(err).Errorf("%s failed", name)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// elapsed formats a duration the way the reports print them.
func elapsed(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return d.Round(time.Microsecond).String()
	}
}

// DatasetCommandBuilder constructs a cli.Command for the dataset verbs using a
// consistent pattern. The builder wires metadata, applies global flags and
// sets up validators.
type DatasetCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command, *store.Store) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (dcb *DatasetCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      dcb.Name,
		Usage:     dcb.Usage,
		UsageText: dcb.UsageText,
		Metadata: map[string]any{
			"meta": dcb.Meta,
		},
		Flags: append(dcb.Flags, NewGlobalFlags(dcb.Name)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			m := GetMeta(c)
			if len(m.Args) > 1 {
				log.Debugf("Executing action for %v", m.Args[1:])
			}

			st, err := NewStore(c)
			if err != nil {
				return err
			}
			return dcb.Action(ctx, c, st)
		},
	}
}
