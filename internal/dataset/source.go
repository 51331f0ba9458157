// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"github.com/staranto/propcache/internal/aws"
)

// raw is a source read as text cells keyed by header.
type raw struct {
	columns []string
	rows    []map[string]string
}

func (r *raw) has(col string) bool {
	for _, c := range r.columns {
		if c == col {
			return true
		}
	}
	return false
}

// require reports the first of cols missing from the header.
func (r *raw) require(cols ...string) error {
	for _, c := range cols {
		if !r.has(c) {
			return fmt.Errorf("missing column %q", c)
		}
	}
	return nil
}

// checkEvery is how many rows are read between context checks.
const checkEvery = 10000

func (l *SourceLoader) read(ctx context.Context, d Descriptor) (*raw, error) {
	if d.Source == "" {
		return nil, errors.New("no source configured")
	}

	rc, err := l.open(ctx, d.Source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	switch ext := strings.ToLower(path.Ext(d.Source)); ext {
	case ".csv":
		return readCSV(ctx, rc)
	case ".xlsx":
		return readXLSX(rc)
	case ".json":
		return readJSON(rc)
	default:
		return nil, fmt.Errorf("unsupported source format %q", ext)
	}
}

func (l *SourceLoader) open(ctx context.Context, loc string) (io.ReadCloser, error) {
	if !aws.IsURI(loc) {
		return os.Open(loc)
	}

	client := l.S3
	if client == nil {
		c, err := aws.DefaultClient(ctx, l.AWSOptions...)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return aws.OpenObject(ctx, client, loc)
}

func readCSV(ctx context.Context, r io.Reader) (*raw, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	out := &raw{columns: cleanHeader(header)}

	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out.rows = append(out.rows, zip(out.columns, rec))
	}
	return out, nil
}

func readXLSX(r io.Reader) (*raw, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	out := &raw{columns: cleanHeader(rows[0])}
	for _, rec := range rows[1:] {
		out.rows = append(out.rows, zip(out.columns, rec))
	}
	return out, nil
}

func readJSON(r io.Reader) (*raw, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid json")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, errors.New("json source must be an array of objects")
	}

	out := &raw{}
	seen := map[string]bool{}
	for i, item := range doc.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("json item %d is not an object", i)
		}
		rec := map[string]string{}
		item.ForEach(func(k, v gjson.Result) bool {
			key := k.String()
			if !seen[key] {
				seen[key] = true
				out.columns = append(out.columns, key)
			}
			if v.Type != gjson.Null {
				rec[key] = v.String()
			}
			return true
		})
		out.rows = append(out.rows, rec)
	}
	return out, nil
}

func cleanHeader(header []string) []string {
	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = strings.TrimSpace(h)
	}
	return cols
}

func zip(cols, rec []string) map[string]string {
	m := make(map[string]string, len(cols))
	for i, c := range cols {
		if i < len(rec) {
			m[c] = strings.TrimSpace(rec[i])
		}
	}
	return m
}
