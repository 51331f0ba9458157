// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/propcache/internal/dataset"
)

// GlobalFlagsValidator checks that every positional argument names a known
// dataset.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	known := dataset.Names(dataset.Defaults(nil))
	for _, arg := range c.Args().Slice() {
		if !slices.Contains(known, arg) {
			return fmt.Errorf("unknown dataset %q (have %s)", arg, strings.Join(known, ", "))
		}
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func NonNegativeValidator(value any) error {
	switch v := value.(type) {
	case time.Duration:
		if v < 0 {
			return errors.New("must not be negative")
		}
	case int:
		if v < 0 {
			return errors.New("must not be negative")
		}
	}
	return nil
}

func PositiveValidator(value any) error {
	if v, ok := value.(int); ok && v < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "yaml"}
	valid := false
	for _, v := range validOutputFlagValues {
		if v == value {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}
