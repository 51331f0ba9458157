// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package snapshot encodes tables as Avro object container files. A snapshot
// carries its dataset name, schema descriptor, row count and a BLAKE2b digest
// of the encoded rows in the OCF header, and Read refuses anything that does
// not verify against them.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/staranto/propcache/internal/table"
)

// ErrCorrupt is wrapped by every error Read returns.
var ErrCorrupt = errors.New("corrupt snapshot")

const (
	metaDataset = "propcache.dataset"
	metaSchema  = "propcache.schema"
	metaRows    = "propcache.rows"
	metaDigest  = "propcache.digest"

	recordName = "Row"
	namespace  = "propcache"
)

// Earliest and latest instants representable as int64 Unix nanoseconds.
var (
	minTime = time.Unix(0, -1<<63).UTC()
	maxTime = time.Unix(0, 1<<63-1).UTC()
)

// Write encodes t as the snapshot for dataset name.
func Write(w io.Writer, name string, t *table.Table) error {
	schema := t.Schema()
	codec, err := newCodec(schema)
	if err != nil {
		return err
	}

	// The digest goes in the header, so rows are converted and hashed before
	// the container is opened.
	datums := make([]any, t.Len())
	h := newDigest()
	var buf []byte
	for i := range datums {
		datum, err := toNative(schema, t.Row(i))
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		buf, err = codec.BinaryFromNative(buf[:0], datum)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		h.Write(buf)
		datums[i] = datum
	}

	ocfw, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: goavro.CompressionDeflateLabel,
		MetaData: map[string][]byte{
			metaDataset: []byte(name),
			metaSchema:  []byte(schema.String()),
			metaRows:    []byte(strconv.Itoa(t.Len())),
			metaDigest:  []byte(hex.EncodeToString(h.Sum(nil))),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open snapshot writer: %w", err)
	}

	if len(datums) == 0 {
		return nil
	}
	if err := ocfw.Append(datums); err != nil {
		return fmt.Errorf("failed to append rows: %w", err)
	}
	return nil
}

// Read decodes a snapshot for dataset name and checks it against want.
func Read(r io.Reader, name string, want table.Schema) (*table.Table, error) {
	ocfr, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, corrupt("bad header: %v", err)
	}

	meta := ocfr.MetaData()
	if got := string(meta[metaDataset]); got != name {
		return nil, corrupt("dataset is %q, want %q", got, name)
	}
	if got := string(meta[metaSchema]); got != want.String() {
		return nil, corrupt("schema %q does not match %q", got, want.String())
	}
	rows, err := strconv.Atoi(string(meta[metaRows]))
	if err != nil {
		return nil, corrupt("bad row count: %v", err)
	}
	digest := string(meta[metaDigest])

	codec := ocfr.Codec()
	b := table.NewBuilder(want)
	h := newDigest()
	var buf []byte
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, corrupt("row %d: %v", b.Len(), err)
		}
		buf, err = codec.BinaryFromNative(buf[:0], datum)
		if err != nil {
			return nil, corrupt("row %d: %v", b.Len(), err)
		}
		h.Write(buf)

		values, err := fromNative(want, datum)
		if err != nil {
			return nil, corrupt("row %d: %v", b.Len(), err)
		}
		if err := b.Append(values...); err != nil {
			return nil, corrupt("row %d: %v", b.Len(), err)
		}
	}
	if err := ocfr.Err(); err != nil {
		return nil, corrupt("%v", err)
	}

	if b.Len() != rows {
		return nil, corrupt("read %d rows, header says %d", b.Len(), rows)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != digest {
		return nil, corrupt("digest mismatch")
	}

	return b.Build()
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}

func newDigest() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}

// avroType maps a column type to the Avro primitive carrying it.
func avroType(t table.Type) string {
	switch t {
	case table.Int, table.Time:
		return "long"
	case table.Float:
		return "double"
	case table.Bool:
		return "boolean"
	default:
		return "string"
	}
}

// newCodec builds the record codec for schema. Column names are not valid
// Avro names in general, so fields are positional and the real names travel
// in the schema descriptor.
func newCodec(schema table.Schema) (*goavro.Codec, error) {
	type field struct {
		Name    string   `json:"name"`
		Type    []string `json:"type"`
		Default any      `json:"default"`
	}
	fields := make([]field, len(schema))
	for i, c := range schema {
		fields[i] = field{
			Name: fieldName(i),
			Type: []string{"null", avroType(c.Type)},
		}
	}

	var doc bytes.Buffer
	if err := json.NewEncoder(&doc).Encode(map[string]any{
		"type":      "record",
		"name":      recordName,
		"namespace": namespace,
		"fields":    fields,
	}); err != nil {
		return nil, err
	}

	codec, err := goavro.NewCodec(doc.String())
	if err != nil {
		return nil, fmt.Errorf("failed to build avro codec: %w", err)
	}
	return codec, nil
}

func fieldName(i int) string {
	return "c" + strconv.Itoa(i)
}

func toNative(schema table.Schema, row []any) (map[string]any, error) {
	rec := make(map[string]any, len(row))
	for i, v := range row {
		name := fieldName(i)
		if v == nil {
			rec[name] = nil
			continue
		}
		if tv, ok := v.(time.Time); ok {
			if tv.Before(minTime) || tv.After(maxTime) {
				return nil, fmt.Errorf("column %q: time %s out of range", schema[i].Name, tv)
			}
			v = tv.UnixNano()
		}
		rec[name] = goavro.Union(avroType(schema[i].Type), v)
	}
	return rec, nil
}

func fromNative(schema table.Schema, datum any) ([]any, error) {
	rec, ok := datum.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("datum is %T, not a record", datum)
	}

	values := make([]any, len(schema))
	for i, c := range schema {
		raw, ok := rec[fieldName(i)]
		if !ok {
			return nil, fmt.Errorf("missing field for column %q", c.Name)
		}
		if raw == nil {
			continue
		}
		union, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("column %q: unexpected %T", c.Name, raw)
		}
		v, ok := union[avroType(c.Type)]
		if !ok {
			return nil, fmt.Errorf("column %q: wrong union branch", c.Name)
		}
		if c.Type == table.Time {
			n, ok := v.(int64)
			if !ok {
				return nil, fmt.Errorf("column %q: unexpected %T", c.Name, v)
			}
			v = time.Unix(0, n).UTC()
		}
		values[i] = v
	}
	return values, nil
}
