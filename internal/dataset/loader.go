// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/staranto/propcache/internal/aws"
	"github.com/staranto/propcache/internal/table"
)

// DefaultYearsBack is how many years of historical sales are kept.
const DefaultYearsBack = 5

// Loader produces the cleaned table for a dataset from its primary source.
type Loader interface {
	Load(ctx context.Context, d Descriptor) (*table.Table, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, d Descriptor) (*table.Table, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, d Descriptor) (*table.Table, error) {
	return f(ctx, d)
}

// SourceUnavailableError reports a primary source that is missing,
// unreadable or not in a usable format.
type SourceUnavailableError struct {
	Dataset string
	Source  string
	Err     error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s source %q unavailable: %v", e.Dataset, e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SourceLoader reads datasets from files or S3 objects.
type SourceLoader struct {
	// Fallback substitutes sample data when the source is unavailable.
	Fallback bool
	// YearsBack bounds historical sales; zero means DefaultYearsBack.
	YearsBack int
	// Now is the clock used for the historical cutoff and sample dates.
	Now func() time.Time
	// S3 reads s3:// sources. When nil a client is built from the shared
	// AWS config on first use.
	S3 aws.ObjectGetter
	// AWSOptions are passed to the AWS config loader when S3 is nil.
	AWSOptions []aws.Option
}

// Load implements Loader.
func (l *SourceLoader) Load(ctx context.Context, d Descriptor) (*table.Table, error) {
	if err := d.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
	}

	start := time.Now()
	tbl, err := l.load(ctx, d)
	if err == nil {
		log.WithFields(log.Fields{
			"dataset": d.Name,
			"rows":    tbl.Len(),
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("loaded source")
		return tbl, nil
	}

	var unavailable *SourceUnavailableError
	if l.Fallback && errors.As(err, &unavailable) {
		log.WithError(err).Warnf("%s source unavailable, generating sample data", d.Name)
		return Sample(d, l.now())
	}
	return nil, err
}

func (l *SourceLoader) load(ctx context.Context, d Descriptor) (*table.Table, error) {
	raw, err := l.read(ctx, d)
	if err != nil {
		return nil, &SourceUnavailableError{Dataset: d.Name, Source: d.Source, Err: err}
	}

	switch d.Name {
	case Historical:
		return historical(raw, d, l.now(), l.yearsBack())
	case Current:
		return current(raw, d)
	default:
		return convert(raw, d)
	}
}

func (l *SourceLoader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *SourceLoader) yearsBack() int {
	if l.YearsBack > 0 {
		return l.YearsBack
	}
	return DefaultYearsBack
}
