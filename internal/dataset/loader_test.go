// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package dataset

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/staranto/propcache/internal/table"
)

var testNow = time.Date(2025, 10, 19, 9, 30, 0, 0, time.UTC)

func testLoader() *SourceLoader {
	return &SourceLoader{Now: func() time.Time { return testNow }}
}

func descriptor(name, source string) Descriptor {
	d, _ := Lookup(Defaults(map[string]string{name: source}), name)
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDefaults(t *testing.T) {
	ds := Defaults(nil)
	assert.Equal(t, []string{Historical, Current}, Names(ds))
	assert.Equal(t, DefaultHistoricalSource, ds[0].Source)

	ds = Defaults(map[string]string{Current: "s3://listings/today.json"})
	d, ok := Lookup(ds, Current)
	assert.True(t, ok)
	assert.Equal(t, "s3://listings/today.json", d.Source)
	assert.True(t, CurrentSchema.Equal(d.Schema))

	_, ok = Lookup(ds, "forecast")
	assert.False(t, ok)
}

func TestSchemasAreValid(t *testing.T) {
	assert.NoError(t, HistoricalSchema.Validate())
	assert.NoError(t, CurrentSchema.Validate())
}

func TestLoad_Historical(t *testing.T) {
	tbl, err := testLoader().Load(context.Background(), descriptor(Historical, "testdata/historical.csv"))
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len())

	assert.Equal(t, "BONDI", tbl.Value(0, "Property locality"))
	assert.Equal(t, "2026", tbl.Value(0, "Property post code"))
	assert.Equal(t, date(2024, 3, 15), tbl.Value(0, "Contract date"))
	assert.Equal(t, date(2024, 4, 26), tbl.Value(0, "Settlement date"))
	assert.Equal(t, 2450000.0, tbl.Value(0, "Purchase price"))
	assert.Equal(t, 310.5, tbl.Value(0, "Area"))

	assert.Equal(t, "Coogee", tbl.Value(1, "Property locality"))
	assert.Equal(t, date(2023, 6, 15), tbl.Value(1, "Contract date"))
	assert.Nil(t, tbl.Value(1, "Settlement date"))
	assert.Nil(t, tbl.Value(1, "Area"))

	// Kept on locality alone.
	assert.Equal(t, "Tamarama", tbl.Value(2, "Property locality"))
	assert.Nil(t, tbl.Value(2, "Property post code"))
	assert.Equal(t, 3100000.0, tbl.Value(2, "Purchase price"))
}

func TestLoad_HistoricalYearsBack(t *testing.T) {
	l := testLoader()
	l.YearsBack = 2
	tbl, err := l.Load(context.Background(), descriptor(Historical, "testdata/historical.csv"))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "BONDI", tbl.Value(0, "Property locality"))
}

func TestLoad_CurrentCSV(t *testing.T) {
	tbl, err := testLoader().Load(context.Background(), descriptor(Current, "testdata/current.csv"))
	require.NoError(t, err)
	require.Equal(t, 3, tbl.Len(), "exact duplicate should be dropped")

	assert.Equal(t, 2500000.0, tbl.Value(0, "price"))
	assert.Equal(t, "$2,500,000", tbl.Value(0, "price_display"))
	assert.Equal(t, int64(3), tbl.Value(0, "bedrooms"))
	assert.Equal(t, date(2025, 10, 1), tbl.Value(0, "listing_date"))

	assert.Equal(t, 2450000.0, tbl.Value(1, "price"))
	assert.Equal(t, "$2,450,000", tbl.Value(1, "price_display"))

	assert.Equal(t, 0.0, tbl.Value(2, "price"))
	assert.Equal(t, "$0", tbl.Value(2, "price_display"))
	assert.Equal(t, int64(0), tbl.Value(2, "bedrooms"))
	assert.Equal(t, int64(0), tbl.Value(2, "bathrooms"))
	assert.Equal(t, int64(0), tbl.Value(2, "parking"))
	assert.Nil(t, tbl.Value(2, "square_meters"))
	assert.Equal(t, "Unknown", tbl.Value(2, "property_type"))
}

func TestLoad_CurrentJSON(t *testing.T) {
	tbl, err := testLoader().Load(context.Background(), descriptor(Current, "testdata/current.json"))
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, 2800000.0, tbl.Value(0, "price"))
	assert.Equal(t, 250.5, tbl.Value(0, "square_meters"))
	assert.Equal(t, int64(4), tbl.Value(0, "bedrooms"))

	assert.Equal(t, 1150000.0, tbl.Value(1, "price"))
	assert.Equal(t, "$1,150,000", tbl.Value(1, "price_display"))
	assert.Equal(t, int64(0), tbl.Value(1, "bedrooms"))
	assert.Equal(t, "Unknown", tbl.Value(1, "property_type"))
	assert.Nil(t, tbl.Value(1, "state"))
}

func TestLoad_CurrentXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"address", "suburb", "price", "bedrooms"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"5 Park Ave, Bronte NSW 2024", "Bronte", 3100000, 3}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := testLoader().Load(context.Background(), descriptor(Current, path))
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Bronte", tbl.Value(0, "suburb"))
	assert.Equal(t, 3100000.0, tbl.Value(0, "price"))
	assert.Equal(t, int64(3), tbl.Value(0, "bedrooms"))
}

type fakeS3 struct {
	body string
	err  error
	key  string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	f.key = awsv2.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestLoad_S3(t *testing.T) {
	s3 := &fakeS3{body: "address,price\n\"1 Hill St, Bronte\",900000\n"}
	l := testLoader()
	l.S3 = s3

	tbl, err := l.Load(context.Background(), descriptor(Current, "s3://listings/current.csv"))
	require.NoError(t, err)
	assert.Equal(t, "current.csv", s3.key)
	assert.Equal(t, 900000.0, tbl.Value(0, "price"))
}

func TestLoad_Unavailable(t *testing.T) {
	tests := []struct {
		name   string
		source string
		s3     *fakeS3
	}{
		{name: "missing file", source: "testdata/nope.csv"},
		{name: "unsupported format", source: "testdata/historical.parquet"},
		{name: "missing columns", source: "testdata/missing-columns.csv"},
		{name: "no source", source: ""},
		{name: "s3 failure", source: "s3://listings/current.csv", s3: &fakeS3{err: errors.New("access denied")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLoader()
			if tt.s3 != nil {
				l.S3 = tt.s3
			}
			d := descriptor(Historical, "")
			d.Source = tt.source

			_, err := l.Load(context.Background(), d)
			var unavailable *SourceUnavailableError
			require.ErrorAs(t, err, &unavailable)
			assert.Equal(t, Historical, unavailable.Dataset)
		})
	}
}

func TestLoad_Fallback(t *testing.T) {
	l := testLoader()
	l.Fallback = true

	tbl, err := l.Load(context.Background(), descriptor(Current, "testdata/nope.csv"))
	require.NoError(t, err)
	assert.Positive(t, tbl.Len())
	assert.True(t, CurrentSchema.Equal(tbl.Schema()))
	for i := 0; i < tbl.Len(); i++ {
		assert.Equal(t, SampleSource, tbl.Value(i, "source"))
	}
}

func TestLoad_InvalidSchema(t *testing.T) {
	_, err := testLoader().Load(context.Background(), Descriptor{Name: "bad", Source: "x.csv"})
	assert.Error(t, err)
}

func TestLoad_GenericDataset(t *testing.T) {
	d := Descriptor{
		Name:   "suburbs",
		Source: "testdata/current.csv",
		Schema: table.Schema{{Name: "suburb", Type: table.String}, {Name: "bedrooms", Type: table.Int}},
	}
	tbl, err := testLoader().Load(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
	assert.Nil(t, tbl.Value(3, "bedrooms"))
}

func TestLoaderFunc(t *testing.T) {
	called := false
	var l Loader = LoaderFunc(func(_ context.Context, d Descriptor) (*table.Table, error) {
		called = true
		return Sample(d, testNow)
	})
	_, err := l.Load(context.Background(), descriptor(Historical, ""))
	assert.NoError(t, err)
	assert.True(t, called)
}
