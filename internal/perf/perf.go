// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package perf compares cold loads against warm snapshot reads.
package perf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"gonum.org/v1/gonum/stat"

	"github.com/staranto/propcache/internal/table"
)

// Cache is the part of the store that Measure drives.
type Cache interface {
	Get(ctx context.Context, name string) (*table.Table, error)
	Invalidate(name string) error
}

type options struct {
	now  func() time.Time
	warm func() (Cache, error)
}

// Option customizes Measure.
type Option func(*options)

// WithClock replaces time.Now for timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithWarmCache builds the Cache each warm read goes through. A cache that
// has never served the dataset has to read its snapshot from disk, which the
// cache that just did the cold load would skip. By default the warm read
// reuses the cold cache.
func WithWarmCache(build func() (Cache, error)) Option {
	return func(o *options) { o.warm = build }
}

// Result summarises the timings for one dataset.
type Result struct {
	Name       string
	Iterations int
	Rows       int
	ColdMean   time.Duration
	ColdStdDev time.Duration
	WarmMean   time.Duration
	WarmStdDev time.Duration
	// Improvement is how much faster a warm read is than a cold load, in
	// percent of the cold mean.
	Improvement float64
}

// Measure runs iterations rounds of a cold load (Invalidate then Get) followed
// by a warm read (Get) of the named dataset. Building the warm cache is not
// timed.
func Measure(ctx context.Context, c Cache, name string, iterations int, opts ...Option) (Result, error) {
	if iterations < 1 {
		return Result{}, errors.New("iterations must be at least 1")
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	timed := func(c Cache) (*table.Table, float64, error) {
		start := o.now()
		tbl, err := c.Get(ctx, name)
		return tbl, float64(o.now().Sub(start)), err
	}

	cold := make([]float64, 0, iterations)
	warm := make([]float64, 0, iterations)
	rows := 0
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		if err := c.Invalidate(name); err != nil {
			return Result{}, fmt.Errorf("failed to invalidate %s: %w", name, err)
		}
		_, d, err := timed(c)
		if err != nil {
			return Result{}, err
		}
		cold = append(cold, d)

		wc := c
		if o.warm != nil {
			if wc, err = o.warm(); err != nil {
				return Result{}, fmt.Errorf("failed to open warm cache: %w", err)
			}
		}
		tbl, d, err := timed(wc)
		if err != nil {
			return Result{}, err
		}
		warm = append(warm, d)
		rows = tbl.Len()

		log.WithFields(log.Fields{
			"dataset": name,
			"cold":    time.Duration(cold[i]),
			"warm":    time.Duration(warm[i]),
		}).Debugf("iteration %d", i+1)
	}

	r := Result{Name: name, Iterations: iterations, Rows: rows}
	cm, cs := meanStdDev(cold)
	wm, ws := meanStdDev(warm)
	r.ColdMean, r.ColdStdDev = time.Duration(cm), time.Duration(cs)
	r.WarmMean, r.WarmStdDev = time.Duration(wm), time.Duration(ws)
	if cm > 0 {
		r.Improvement = (cm - wm) / cm * 100
	}
	return r, nil
}

// meanStdDev is stat.MeanStdDev with a zero deviation for a single sample.
func meanStdDev(x []float64) (mean, std float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}
