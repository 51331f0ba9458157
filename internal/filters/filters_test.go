// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/propcache/internal/table"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
	}{
		{
			name: "empty spec",
			spec: "",
		},
		{
			name: "single exact match filter",
			spec: "suburb=Bondi",
			want: []Filter{{Key: "suburb", Operand: "=", Target: "Bondi"}},
		},
		{
			name: "key with spaces",
			spec: "Purchase price>1500000",
			want: []Filter{{Key: "Purchase price", Operand: ">", Target: "1500000"}},
		},
		{
			name: "negated prefix match",
			spec: "postcode!^203",
			want: []Filter{{Key: "postcode", Operand: "^", Target: "203", Negate: true}},
		},
		{
			name: "multiple filters",
			spec: "suburb~bondi,bedrooms<4",
			want: []Filter{
				{Key: "suburb", Operand: "~", Target: "bondi"},
				{Key: "bedrooms", Operand: "<", Target: "4"},
			},
		},
		{
			name: "regex operand",
			spec: "address/^1[0-9] ",
			want: []Filter{{Key: "address", Operand: "/", Target: "^1[0-9] "}},
		},
		{
			name: "invalid filter skipped",
			spec: "suburb=Bondi,nonsense,=orphan,state@NS",
			want: []Filter{
				{Key: "suburb", Operand: "=", Target: "Bondi"},
				{Key: "state", Operand: "@", Target: "NS"},
			},
		},
		{
			name:      "custom delimiter",
			spec:      "price_display@1,000|suburb=Coogee",
			delimiter: "|",
			want: []Filter{
				{Key: "price_display", Operand: "@", Target: "1,000"},
				{Key: "suburb", Operand: "=", Target: "Coogee"},
			},
		},
		{
			name: "empty target",
			spec: "Zoning=",
			want: []Filter{{Key: "Zoning", Operand: "=", Target: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv("PROPCACHE_FILTER_DELIM", tt.delimiter)
			}

			got := BuildFilters(tt.spec)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckStringOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		filter Filter
		want   bool
	}{
		{"exact match", "Bondi", Filter{Operand: "=", Target: "Bondi"}, true},
		{"exact mismatch", "Bondi", Filter{Operand: "=", Target: "Coogee"}, false},
		{"negated exact", "Bondi", Filter{Operand: "=", Target: "Coogee", Negate: true}, true},
		{"fold", "BONDI", Filter{Operand: "~", Target: "bondi"}, true},
		{"prefix", "Bondi Junction", Filter{Operand: "^", Target: "Bondi"}, true},
		{"negated prefix", "Bondi Junction", Filter{Operand: "^", Target: "Bondi", Negate: true}, false},
		{"greater", "2024-03-15", Filter{Operand: ">", Target: "2024-01-01"}, true},
		{"less", "2024-03-15", Filter{Operand: "<", Target: "2024-01-01"}, false},
		{"contains", "12 Ocean St, Bondi", Filter{Operand: "@", Target: "Ocean"}, true},
		{"regex", "12 Ocean St", Filter{Operand: "/", Target: `^\d+ Ocean`}, true},
		{"bad regex", "12 Ocean St", Filter{Operand: "/", Target: "("}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkStringOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckNumericOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		filter Filter
		want   bool
	}{
		{"equal", 3, Filter{Operand: "=", Target: "3"}, true},
		{"not equal", 3, Filter{Operand: "=", Target: "3", Negate: true}, false},
		{"greater", 2500000, Filter{Operand: ">", Target: "2000000"}, true},
		{"less", 2500000, Filter{Operand: "<", Target: " 2000000 "}, false},
		{"bad target", 1, Filter{Operand: ">", Target: "lots"}, false},
		{"unsupported operand", 1, Filter{Operand: "^", Target: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkNumericOperand(tt.value, tt.filter))
		})
	}
}

func listings(t *testing.T) *table.Table {
	t.Helper()
	b := table.NewBuilder(table.Schema{
		{Name: "suburb", Type: table.String},
		{Name: "price", Type: table.Float},
		{Name: "bedrooms", Type: table.Int},
		{Name: "listed", Type: table.Time},
		{Name: "strata", Type: table.Bool},
	})
	require.NoError(t, b.Append("Bondi", 2500000.0, 3, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), false))
	require.NoError(t, b.Append("Coogee", 1800000.0, 2, time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC), true))
	require.NoError(t, b.Append("Bronte", nil, 4, nil, false))
	tbl, err := b.Build()
	require.NoError(t, err)
	return tbl
}

func TestFilterTable(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []string
	}{
		{name: "no filter", spec: "", want: []string{"Bondi", "Coogee", "Bronte"}},
		{name: "numeric", spec: "price>2000000", want: []string{"Bondi"}},
		{name: "null never matches", spec: "price<3000000", want: []string{"Bondi", "Coogee"}},
		{name: "int column", spec: "bedrooms!=2", want: []string{"Bondi", "Bronte"}},
		{name: "time column", spec: "listed>2025-09-30", want: []string{"Bondi"}},
		{name: "bool column", spec: "strata=true", want: []string{"Coogee"}},
		{name: "combined", spec: "suburb^B,bedrooms>3", want: []string{"Bronte"}},
		{name: "unknown key ignored", spec: "garage=1,suburb=Coogee", want: []string{"Coogee"}},
	}

	src := listings(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterTable(src, tt.spec)
			require.NoError(t, err)

			var suburbs []string
			for i := 0; i < got.Len(); i++ {
				suburbs = append(suburbs, got.Value(i, "suburb").(string))
			}
			assert.Equal(t, tt.want, suburbs)
			assert.Equal(t, 3, src.Len(), "source table is untouched")
		})
	}
}
