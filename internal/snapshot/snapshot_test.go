// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package snapshot

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/propcache/internal/table"
)

var salesSchema = table.Schema{
	{Name: "Property locality", Type: table.String},
	{Name: "Contract date", Type: table.Time},
	{Name: "Purchase price", Type: table.Float},
	{Name: "Bedrooms", Type: table.Int},
	{Name: "Strata", Type: table.Bool},
}

func salesTable(t *testing.T, rows int) *table.Table {
	t.Helper()
	b := table.NewBuilder(salesSchema)
	base := time.Date(2021, 3, 4, 5, 6, 7, 891011, time.UTC)
	for i := 0; i < rows; i++ {
		require.NoError(t, b.Append(
			"Bondi",
			base.Add(time.Duration(i)*time.Hour),
			1234567.891+float64(i)/3,
			int64(i),
			i%2 == 0,
		))
	}
	tbl, err := b.Build()
	require.NoError(t, err)
	return tbl
}

func encode(t *testing.T, name string, tbl *table.Table) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, name, tbl))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	want := salesTable(t, 250)
	raw := encode(t, "historical", want)

	got, err := Read(bytes.NewReader(raw), "historical", salesSchema)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestRoundTrip_ExactValues(t *testing.T) {
	b := table.NewBuilder(salesSchema)
	when := time.Date(1999, 12, 31, 23, 59, 59, 999999999, time.UTC)
	require.NoError(t, b.Append("Coogee", when, math.SmallestNonzeroFloat64, int64(math.MaxInt64), true))
	require.NoError(t, b.Append(nil, nil, math.NaN(), nil, nil))
	require.NoError(t, b.Append("", time.Unix(0, 0), math.Inf(-1), int64(math.MinInt64), false))
	want, err := b.Build()
	require.NoError(t, err)

	got, err := Read(bytes.NewReader(encode(t, "current", want)), "current", salesSchema)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
	assert.True(t, when.Equal(got.Value(0, "Contract date").(time.Time)))
	assert.Nil(t, got.Value(1, "Property locality"))
	assert.True(t, math.IsNaN(got.Value(1, "Purchase price").(float64)))
}

func TestRoundTrip_Empty(t *testing.T) {
	want := salesTable(t, 0)
	got, err := Read(bytes.NewReader(encode(t, "historical", want)), "historical", salesSchema)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestWrite_TimeOutOfRange(t *testing.T) {
	b := table.NewBuilder(salesSchema)
	require.NoError(t, b.Append("Bondi", time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil, nil))
	tbl, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, Write(&buf, "historical", tbl))
}

func TestRead_Corrupt(t *testing.T) {
	raw := encode(t, "historical", salesTable(t, 500))

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "garbage", data: []byte("this is not an avro container")},
		{name: "truncated header", data: raw[:20]},
		{name: "truncated body", data: raw[:len(raw)-40]},
		{name: "half", data: raw[:len(raw)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data), "historical", salesSchema)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestRead_WrongDataset(t *testing.T) {
	raw := encode(t, "historical", salesTable(t, 3))
	_, err := Read(bytes.NewReader(raw), "current", salesSchema)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRead_SchemaMismatch(t *testing.T) {
	raw := encode(t, "historical", salesTable(t, 3))

	other := append(table.Schema(nil), salesSchema...)
	other[2].Type = table.String

	_, err := Read(bytes.NewReader(raw), "historical", other)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "schema")
}
