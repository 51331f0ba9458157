// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"github.com/staranto/propcache/internal/table"
)

// Names of the standard datasets.
const (
	Historical = "historical"
	Current    = "current"
)

// Default source locations, relative to the working directory.
const (
	DefaultHistoricalSource = "data/extract-3-very-clean.csv"
	DefaultCurrentSource    = "data/current_property_data.csv"
)

// Descriptor names a dataset, where its primary data lives and the schema
// its cleaned table conforms to.
type Descriptor struct {
	Name   string
	Source string
	Schema table.Schema
}

// HistoricalSchema is the schema of cleaned historical sales.
var HistoricalSchema = table.Schema{
	{Name: "Property locality", Type: table.String},
	{Name: "Property post code", Type: table.String},
	{Name: "Property street name", Type: table.String},
	{Name: "Contract date", Type: table.Time},
	{Name: "Settlement date", Type: table.Time},
	{Name: "Purchase price", Type: table.Float},
	{Name: "Area", Type: table.Float},
	{Name: "Zoning", Type: table.String},
	{Name: "Primary purpose", Type: table.String},
}

// CurrentSchema is the schema of cleaned current listings.
var CurrentSchema = table.Schema{
	{Name: "address", Type: table.String},
	{Name: "suburb", Type: table.String},
	{Name: "state", Type: table.String},
	{Name: "postcode", Type: table.String},
	{Name: "price", Type: table.Float},
	{Name: "price_display", Type: table.String},
	{Name: "bedrooms", Type: table.Int},
	{Name: "bathrooms", Type: table.Int},
	{Name: "parking", Type: table.Int},
	{Name: "square_meters", Type: table.Float},
	{Name: "property_type", Type: table.String},
	{Name: "listing_date", Type: table.Time},
	{Name: "source", Type: table.String},
	{Name: "data_type", Type: table.String},
}

// Defaults returns the standard descriptors. A non-empty entry in sources
// overrides the default location for that dataset name.
func Defaults(sources map[string]string) []Descriptor {
	ds := []Descriptor{
		{Name: Historical, Source: DefaultHistoricalSource, Schema: HistoricalSchema},
		{Name: Current, Source: DefaultCurrentSource, Schema: CurrentSchema},
	}
	for i := range ds {
		if s := sources[ds[i].Name]; s != "" {
			ds[i].Source = s
		}
	}
	return ds
}

// Lookup finds the descriptor for name.
func Lookup(ds []Descriptor, name string) (Descriptor, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Names returns the dataset names in order.
func Names(ds []Descriptor) []string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	return names
}
