// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/meta"
)

const bashCompletionScript = `# bash completion for propcache
_propcache()
{
    local cur prev cmd
    COMPREPLY=()
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "build refresh clear check perf show completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--dir -d --threshold --cache --no-cache --fallback --no-fallback --years --historical-source --current-source --output -o --color -c --titles -t"

    case "$cmd" in
        build)
            local opts="$common --force"
            ;;
        check)
            local opts="$common --verify"
            ;;
        perf)
            local opts="$common --iterations -n"
            ;;
        show)
            local opts="$common --columns -a --filter -f --limit -l --sort -s"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json yaml" -- "$cur") )
        return 0
    fi

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -W "historical current" -- "$cur") )
    return 0
}

complete -F _propcache propcache
`

const zshCompletionScript = `#compdef propcache

_propcache() {
  local -a cmds
  cmds=(
    'build:build snapshots that are missing or stale'
    'refresh:reload datasets from source'
    'clear:remove snapshots'
    'check:report snapshot status'
    'perf:compare cold loads against warm reads'
    'show:show dataset rows'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
    '(-d --dir)'{-d,--dir}'[snapshot directory]:dir:_directories'
    '--threshold[freshness threshold]:duration'
    '--years[years of historical sales]:years'
    '--historical-source[historical source]:source:_files'
    '--current-source[current source]:source:_files'
    '(-o --output)'{-o,--output}'[output format]:format:(text json yaml)'
    '(-c --color)'{-c,--color}'[enable colored text]'
    '(-t --titles)'{-t,--titles}'[show titles]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'propcache commands' cmds
    return
  fi

  case $words[2] in
    build)
      _arguments $common '--force[rebuild fresh snapshots]' '*:dataset:(historical current)'
      ;;
    check)
      _arguments $common '--verify[load and count rows]' '*:dataset:(historical current)'
      ;;
    perf)
      _arguments $common '(-n --iterations)'{-n,--iterations}'[rounds]:n' '*:dataset:(historical current)'
      ;;
    show)
      _arguments $common \
        '(-a --columns)'{-a,--columns}'[columns]:columns' \
        '(-f --filter)'{-f,--filter}'[filters]:filters' \
        '(-l --limit)'{-l,--limit}'[row limit]:limit' \
        '(-s --sort)'{-s,--sort}'[sort columns]:columns' \
        '1:dataset:(historical current)'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments $common '*:dataset:(historical current)'
      ;;
  esac
}

compdef _propcache propcache
`

// CompletionCommandAction prints the completion script for the requested
// shell, falling back to $SHELL.
func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := writer(cmd)

	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" {
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		return errors.New("usage: propcache completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "propcache completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
