// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/staranto/propcache/internal/table"
)

// EasternSuburbs are the localities kept from historical sales.
var EasternSuburbs = []string{
	"Bondi", "Coogee", "Double Bay", "Vaucluse", "Bronte", "Rose Bay",
	"Bellevue Hill", "Paddington", "Woollahra", "Bondi Junction",
	"Waverley", "Queens Park", "Bondi Beach", "North Bondi", "Tamarama",
	"Edgecliff", "Dover Heights", "Watsons Bay", "Clovelly", "South Coogee",
	"Kensington", "Maroubra", "Maroubra South", "Pagewood", "Eastgardens",
	"Chifley", "Malabar", "Little Bay", "Phillip Bay",
}

// Eastern Suburbs post codes span this range.
const (
	minPostcode = 2021
	maxPostcode = 2035
)

// dateLayouts are tried in order when parsing source dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"20060102",
	"2/1/2006",
	"2-1-2006",
	"2 Jan 2006",
	"January 2, 2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseNumber accepts plain numbers and display forms such as "$1,250,000".
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalizePostcode strips the ".0" left by spreadsheets that stored the
// post code as a number.
func normalizePostcode(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "."); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	return s
}

func isEasternPostcode(pc string) bool {
	n, err := strconv.Atoi(pc)
	return err == nil && n >= minPostcode && n <= maxPostcode
}

func isEasternLocality(loc string) bool {
	for _, s := range EasternSuburbs {
		if strings.EqualFold(s, strings.TrimSpace(loc)) {
			return true
		}
	}
	return false
}

// nullString maps empty cells to null.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullNumber(s string) any {
	if f, ok := parseNumber(s); ok {
		return f
	}
	return nil
}

func nullDate(s string) any {
	if t, ok := parseDate(s); ok {
		return t
	}
	return nil
}

// historical keeps Eastern Suburbs sales with a parseable contract date no
// older than yearsBack years before now.
func historical(r *raw, d Descriptor, now time.Time, yearsBack int) (*table.Table, error) {
	if err := r.require("Contract date"); err != nil {
		return nil, &SourceUnavailableError{Dataset: d.Name, Source: d.Source, Err: err}
	}
	if !r.has("Property post code") && !r.has("Property locality") {
		return nil, &SourceUnavailableError{Dataset: d.Name, Source: d.Source,
			Err: fmt.Errorf("missing both post code and locality columns")}
	}

	cutoff := now.UTC().AddDate(-yearsBack, 0, 0)
	b := table.NewBuilder(d.Schema)
	var outside, undated, old int
	for _, rec := range r.rows {
		pc := normalizePostcode(rec["Property post code"])
		if !isEasternPostcode(pc) && !isEasternLocality(rec["Property locality"]) {
			outside++
			continue
		}
		contract, ok := parseDate(rec["Contract date"])
		if !ok {
			undated++
			continue
		}
		if contract.Before(cutoff) {
			old++
			continue
		}

		rec["Property post code"] = pc
		if err := b.AppendRecord(project(rec, d.Schema, map[string]any{
			"Contract date": contract,
		})); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{
		"kept":    b.Len(),
		"outside": outside,
		"undated": undated,
		"old":     old,
	}).Debug("filtered historical sales")
	return b.Build()
}

// current de-duplicates listings on (address, price) and normalises the
// numeric fields.
func current(r *raw, d Descriptor) (*table.Table, error) {
	if err := r.require("address", "price"); err != nil {
		return nil, &SourceUnavailableError{Dataset: d.Name, Source: d.Source, Err: err}
	}

	type key struct{ address, price string }
	seen := map[key]bool{}
	b := table.NewBuilder(d.Schema)
	dupes := 0
	for _, rec := range r.rows {
		k := key{rec["address"], rec["price"]}
		if seen[k] {
			dupes++
			continue
		}
		seen[k] = true

		price, _ := parseNumber(rec["price"])
		display := rec["price_display"]
		if display == "" {
			display = "$" + humanize.Comma(int64(price))
		}
		propertyType := rec["property_type"]
		if propertyType == "" {
			propertyType = "Unknown"
		}

		if err := b.AppendRecord(project(rec, d.Schema, map[string]any{
			"price":         price,
			"price_display": display,
			"bedrooms":      count(rec["bedrooms"]),
			"bathrooms":     count(rec["bathrooms"]),
			"parking":       count(rec["parking"]),
			"property_type": propertyType,
		})); err != nil {
			return nil, err
		}
	}

	log.WithFields(log.Fields{"kept": b.Len(), "duplicates": dupes}).Debug("cleaned current listings")
	return b.Build()
}

// convert maps a source onto a schema without any dataset-specific cleaning.
func convert(r *raw, d Descriptor) (*table.Table, error) {
	b := table.NewBuilder(d.Schema)
	for _, rec := range r.rows {
		if err := b.AppendRecord(project(rec, d.Schema, nil)); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// count parses a whole-number field, defaulting to zero.
func count(s string) int64 {
	f, _ := parseNumber(s)
	return int64(f)
}

// project converts the text cells of rec to schema types. Values in set take
// precedence over the source text.
func project(rec map[string]string, schema table.Schema, set map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for _, c := range schema {
		if v, ok := set[c.Name]; ok {
			out[c.Name] = v
			continue
		}
		s := rec[c.Name]
		switch c.Type {
		case table.Float:
			out[c.Name] = nullNumber(s)
		case table.Int:
			if f, ok := parseNumber(s); ok {
				out[c.Name] = int64(f)
			}
		case table.Time:
			out[c.Name] = nullDate(s)
		case table.Bool:
			if v, err := strconv.ParseBool(s); err == nil {
				out[c.Name] = v
			}
		default:
			out[c.Name] = nullString(s)
		}
	}
	return out
}
