// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package aws contains the AWS helpers used to read dataset sources that live
// in S3.
package aws
