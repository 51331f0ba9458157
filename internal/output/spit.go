// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	lgtable "github.com/charmbracelet/lipgloss/v2/table"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/propcache/internal/config"
	"github.com/staranto/propcache/internal/filters"
	"github.com/staranto/propcache/internal/table"
)

// Options controls how a table is sliced and rendered.
type Options struct {
	Filter  string
	Sort    string
	Columns []string
	Limit   int
	Format  string
	Color   bool
	Titles  bool
}

// OptionsFromCommand collects the rendering flags from cmd. Flags the command
// does not define are left at their zero value.
func OptionsFromCommand(cmd *cli.Command) Options {
	opts := Options{Format: "text"}
	has := func(name string) bool {
		for _, f := range cmd.Flags {
			for _, n := range f.Names() {
				if n == name {
					return true
				}
			}
		}
		return false
	}

	if has("filter") {
		opts.Filter = cmd.String("filter")
	}
	if has("sort") {
		opts.Sort = cmd.String("sort")
	}
	if has("columns") {
		opts.Columns = SplitColumns(cmd.String("columns"))
	}
	if has("limit") {
		opts.Limit = int(cmd.Int("limit"))
	}
	if has("output") && cmd.String("output") != "" {
		opts.Format = cmd.String("output")
	}
	if has("color") {
		opts.Color = cmd.Bool("color")
	}
	if has("titles") {
		opts.Titles = cmd.Bool("titles")
	}
	return opts
}

// SplitColumns parses a comma-separated column list.
func SplitColumns(spec string) []string {
	var cols []string
	for _, c := range strings.Split(spec, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// SliceDiceSpit orchestrates filtering, sorting, column selection, limiting
// and rendering of a table according to command flags.
func SliceDiceSpit(tbl *table.Table, cmd *cli.Command, w io.Writer) error {
	return Spit(tbl, OptionsFromCommand(cmd), w)
}

// Spit renders tbl to w after applying opts.
func Spit(tbl *table.Table, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	// Filter first so the later steps work on a smaller table.
	tbl, err := filters.FilterTable(tbl, opts.Filter)
	if err != nil {
		return err
	}

	if opts.Sort != "" {
		if tbl, err = SortTable(tbl, opts.Sort); err != nil {
			return err
		}
	}

	cols, err := selectColumns(tbl.Schema(), opts.Columns)
	if err != nil {
		return err
	}

	n := tbl.Len()
	if opts.Limit > 0 && opts.Limit < n {
		n = opts.Limit
	}
	log.Debugf("rendering %d of %d rows as %s", n, tbl.Len(), opts.Format)

	switch opts.Format {
	case "json":
		records := make([]orderedRecord, n)
		for i := range records {
			records[i] = record(tbl, i, cols)
		}
		out, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		records := make([]yaml.MapSlice, n)
		for i := range records {
			ms := make(yaml.MapSlice, len(cols))
			for j, c := range cols {
				ms[j] = yaml.MapItem{Key: c.Name, Value: yamlValue(tbl.Value(i, c.Name))}
			}
			records[i] = ms
		}
		out, err := yaml.Marshal(records)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "text", "":
		return TableWriter(tbl, cols, n, opts, w)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// selectColumns resolves names against schema. No names selects every
// column.
func selectColumns(schema table.Schema, names []string) ([]table.Column, error) {
	if len(names) == 0 {
		return schema, nil
	}
	cols := make([]table.Column, 0, len(names))
	for _, name := range names {
		idx := schema.Index(name)
		if idx < 0 {
			return nil, fmt.Errorf("unknown column: %s (have %s)", name, strings.Join(schema.Names(), ", "))
		}
		cols = append(cols, schema[idx])
	}
	return cols, nil
}

// orderedRecord marshals to a JSON object that keeps column order.
type orderedRecord struct {
	keys   []string
	values []any
}

func record(tbl *table.Table, i int, cols []table.Column) orderedRecord {
	r := orderedRecord{keys: make([]string, len(cols)), values: make([]any, len(cols))}
	for j, c := range cols {
		r.keys[j] = c.Name
		r.values[j] = tbl.Value(i, c.Name)
	}
	return r
}

func (r orderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')

		v := r.values[i]
		// JSON has no representation for NaN or infinities.
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = nil
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// yamlValue renders times as text so they read the same as the text table.
func yamlValue(v any) any {
	if v == nil {
		return nil
	}
	if _, ok := v.(string); ok {
		return v
	}
	if _, ok := v.(bool); ok {
		return v
	}
	if _, ok := v.(int64); ok {
		return v
	}
	return table.Text(v)
}

// TableWriter renders the first n rows of tbl in a tabular form honoring
// color, titles and padding options.
func TableWriter(tbl *table.Table, cols []table.Column, n int, opts Options, w io.Writer) error {
	if n == 0 {
		return nil
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color && isTerminal(w) {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 0)

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, InterfaceToString(tbl.Value(i, c.Name), "-"))
		}
		rows = append(rows, row)
	}

	t := lgtable.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == lgtable.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		headers := make([]string, len(cols))
		for i, c := range cols {
			headers[i] = c.Name
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}

	_, err := fmt.Fprintln(w, t)
	return err
}

// isTerminal reports whether w is a terminal. Colour escapes are only
// written to terminals.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// InterfaceToString converts a cell to its display text. A custom empty
// value may be provided for nulls.
func InterfaceToString(value any, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil {
		return emptyValue[0]
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return emptyValue[0]
		}
		return v
	case float64:
		// Prices and areas read better without a trailing fraction.
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprintf("%.2f", v)
	default:
		return table.Text(v)
	}
}
