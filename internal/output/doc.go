// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output provides sorting, column selection and emission utilities
// used by commands to present tables as text, JSON or YAML.
package output
