// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/config"
	"github.com/staranto/propcache/internal/dataset"
	"github.com/staranto/propcache/internal/store"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// NewGlobalFlags returns the flags shared by every dataset command. params[0]
// is the command name, used to namespace config file keys.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	ns := ""
	if len(params) > 0 {
		ns = params[0]
	}

	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "cache",
			Usage:   "read and write snapshots",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PROPCACHE_CACHE")),
			Value:   true,
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
		NameSpacedValueChainFlagFromConfigFile("", cfg.Source, &cli.StringFlag{
			Name:    "current-source",
			Usage:   "current listings source (path or s3://bucket/key)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PROPCACHE_CURRENT_SOURCE")),
			Value:   dataset.DefaultCurrentSource,
		}, "datasets.current.source"),
		NameSpacedValueChainFlagFromConfigFile("", cfg.Source, &cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "snapshot directory",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PROPCACHE_CACHE_DIR")),
		}, "cache.dir"),
		&cli.BoolWithInverseFlag{
			Name:  "fallback",
			Usage: "substitute sample data when a source is unavailable",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PROPCACHE_FALLBACK"),
				yaml.YAML("loader.fallback", altsrc.StringSourcer(cfg.Source)),
			),
			Value: true,
		},
		NameSpacedValueChainFlagFromConfigFile("", cfg.Source, &cli.StringFlag{
			Name:    "historical-source",
			Usage:   "historical sales source (path or s3://bucket/key)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PROPCACHE_HISTORICAL_SOURCE")),
			Value:   dataset.DefaultHistoricalSource,
		}, "datasets.historical.source"),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.DurationFlag{
			Name:    "threshold",
			Usage:   "snapshot freshness threshold",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PROPCACHE_THRESHOLD")),
			Value:   store.DefaultThreshold,
			Validator: func(value time.Duration) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
		&cli.IntFlag{
			Name:  "years",
			Usage: "years of historical sales to keep",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PROPCACHE_YEARS"),
				yaml.YAML("loader.years", altsrc.StringSourcer(cfg.Source)),
			),
			Value: dataset.DefaultYearsBack,
		},
	}

	return
}

// NewSliceFlags returns the row selection flags of the show command, each
// namespaced to ns in the config file.
func NewSliceFlags(ns string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "columns",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of columns to include in results",
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "maximum number of rows to show (0 for all)",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"limit", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("limit", altsrc.StringSourcer(cfg.Source)),
			),
		},
		NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, &cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of columns to sort the results by",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		}),
	}
}

// NameSpacedValueChainFlagFromConfigFile adds config file sources to the given
// flag's Sources chain. With explicit keys only those are added; otherwise the
// namespaced key is tried before the bare flag name.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag, keys ...string) *cli.StringFlag {
	if len(keys) == 0 {
		if ns != "" {
			keys = append(keys, ns+"."+flag.Name)
		}
		keys = append(keys, flag.Name)
	}

	for _, key := range keys {
		src := yaml.YAML(key, altsrc.StringSourcer(path))
		flag.Sources.Chain = append(flag.Sources.Chain, src)
	}

	return flag
}
