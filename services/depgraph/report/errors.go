// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import "errors"

var (
	// ErrInvalidSafePattern is returned when a safe-removal glob is malformed.
	ErrInvalidSafePattern = errors.New("invalid safe pattern")

	// ErrUnsupportedFormat is returned by Encode for unknown output formats.
	ErrUnsupportedFormat = errors.New("unsupported report format")

	// ErrInvalidOptions is returned when the hotspot threshold is negative.
	ErrInvalidOptions = errors.New("invalid report options")

	// ErrIncompleteInput is returned by Assemble when a required input is nil.
	ErrIncompleteInput = errors.New("incomplete report input")
)
