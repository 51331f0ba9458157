// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-15", date(2024, 3, 15), true},
		{"2024-03-15 10:20:30", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC), true},
		{"2024-03-15T10:20:30+10:00", time.Date(2024, 3, 15, 0, 20, 30, 0, time.UTC), true},
		{"20240315", date(2024, 3, 15), true},
		{"15/03/2024", date(2024, 3, 15), true},
		{"5/3/2024", date(2024, 3, 5), true},
		{"15 Mar 2024", date(2024, 3, 15), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"2500000", 2500000, true},
		{"$2,500,000", 2500000, true},
		{" 310.5 ", 310.5, true},
		{"Contact agent", 0, false},
		{"nan", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePostcode(t *testing.T) {
	assert.Equal(t, "2026", normalizePostcode("2026.0"))
	assert.Equal(t, "2026", normalizePostcode(" 2026 "))
	assert.Equal(t, "2026", normalizePostcode("2026.00"))
	assert.Equal(t, "2026.5", normalizePostcode("2026.5"))
	assert.True(t, isEasternPostcode("2021"))
	assert.True(t, isEasternPostcode("2035"))
	assert.False(t, isEasternPostcode("2036"))
	assert.False(t, isEasternPostcode(""))
	assert.True(t, isEasternLocality("bondi junction"))
	assert.False(t, isEasternLocality("Parramatta"))
}

func TestSample(t *testing.T) {
	for _, name := range []string{Historical, Current} {
		t.Run(name, func(t *testing.T) {
			d := descriptor(name, "")
			a, err := Sample(d, testNow)
			require.NoError(t, err)
			b, err := Sample(d, testNow.Add(time.Hour))
			require.NoError(t, err)

			assert.Positive(t, a.Len())
			assert.True(t, d.Schema.Equal(a.Schema()))
			assert.True(t, a.Equal(b), "same day should give the same rows")
		})
	}

	_, err := Sample(Descriptor{Name: "forecast"}, testNow)
	assert.Error(t, err)
}

func TestSample_HistoricalWithinWindow(t *testing.T) {
	tbl, err := Sample(descriptor(Historical, ""), testNow)
	require.NoError(t, err)

	cutoff := testNow.AddDate(-DefaultYearsBack, 0, 0)
	for i := 0; i < tbl.Len(); i++ {
		contract := tbl.Value(i, "Contract date").(time.Time)
		assert.False(t, contract.Before(cutoff))
		assert.False(t, contract.After(testNow))
		assert.True(t, isEasternPostcode(tbl.Value(i, "Property post code").(string)))
	}
}
