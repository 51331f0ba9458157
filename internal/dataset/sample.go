// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/staranto/propcache/internal/table"
)

// SampleSource is the source column value of generated listings.
const SampleSource = "sample_data"

const (
	sampleSeed       = 2026
	sampleSales      = 1000
	sampleMinPrice   = 500000
	sampleSettlement = 42 * 24 * time.Hour
)

type sampleSuburb struct {
	name     string
	postcode string
	avgPrice float64
	spread   float64
}

var sampleSuburbs = []sampleSuburb{
	{"Bondi", "2026", 2500000, 500000},
	{"Coogee", "2031", 2200000, 400000},
	{"Double Bay", "2027", 3500000, 800000},
	{"Vaucluse", "2029", 4500000, 1000000},
	{"Bronte", "2024", 2800000, 600000},
	{"Rose Bay", "2028", 3200000, 700000},
	{"Bellevue Hill", "2023", 3800000, 900000},
	{"Paddington", "2021", 2000000, 400000},
}

var (
	samplePropertyTypes = []string{"House", "Unit/Apartment", "Townhouse", "Villa"}
	sampleStreets       = []string{"Ocean St", "Beach Rd", "Park Ave", "Hill St", "Garden Way", "Bay View Dr", "Harbour St"}
)

// Sample returns a generated table for d. The same descriptor and day always
// produce the same rows.
func Sample(d Descriptor, now time.Time) (*table.Table, error) {
	day := now.UTC().Truncate(24 * time.Hour)
	r := rand.New(rand.NewPCG(sampleSeed, uint64(day.Unix())))

	switch d.Name {
	case Historical:
		return sampleHistorical(d.Schema, r, day)
	case Current:
		return sampleCurrent(d.Schema, r, day)
	default:
		return nil, fmt.Errorf("no sample data for dataset %q", d.Name)
	}
}

func sampleHistorical(schema table.Schema, r *rand.Rand, day time.Time) (*table.Table, error) {
	b := table.NewBuilder(schema)
	for i := 0; i < sampleSales; i++ {
		s := sampleSuburbs[r.IntN(len(sampleSuburbs))]
		contract := day.AddDate(0, 0, -i)
		price := math.Abs(s.avgPrice + r.NormFloat64()*s.spread)
		area := math.Abs(200 + r.NormFloat64()*50)
		street := fmt.Sprintf("%d %s", 1+r.IntN(199), sampleStreets[r.IntN(len(sampleStreets))])

		if err := b.AppendRecord(map[string]any{
			"Property locality":    s.name,
			"Property post code":   s.postcode,
			"Property street name": street,
			"Contract date":        contract,
			"Settlement date":      contract.Add(sampleSettlement),
			"Purchase price":       math.Round(price),
			"Area":                 math.Round(area),
			"Zoning":               "R2",
			"Primary purpose":      "RESIDENCE",
		}); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func sampleCurrent(schema table.Schema, r *rand.Rand, day time.Time) (*table.Table, error) {
	b := table.NewBuilder(schema)
	for _, s := range sampleSuburbs {
		for n := 3 + r.IntN(3); n > 0; n-- {
			price := math.Max(sampleMinPrice, s.avgPrice*1.1+r.NormFloat64()*s.spread*0.2)
			price = math.Trunc(price)
			area := math.Max(50, math.Min(500, 200+r.NormFloat64()*50))
			bedrooms := 1 + r.IntN(5)
			bathrooms := 1 + r.IntN(min(bedrooms, 3))
			street := fmt.Sprintf("%d %s", 1+r.IntN(199), sampleStreets[r.IntN(len(sampleStreets))])

			if err := b.AppendRecord(map[string]any{
				"address":       fmt.Sprintf("%s, %s NSW %s", street, s.name, s.postcode),
				"suburb":        s.name,
				"state":         "NSW",
				"postcode":      s.postcode,
				"price":         price,
				"price_display": "$" + humanize.Comma(int64(price)),
				"bedrooms":      bedrooms,
				"bathrooms":     bathrooms,
				"parking":       r.IntN(3),
				"square_meters": math.Trunc(area),
				"property_type": samplePropertyTypes[r.IntN(len(samplePropertyTypes))],
				"listing_date":  day,
				"source":        SampleSource,
				"data_type":     "for_sale",
			}); err != nil {
				return nil, err
			}
		}
	}
	return b.Build()
}
