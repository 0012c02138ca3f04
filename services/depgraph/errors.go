// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import "errors"

// Sentinel errors for the depgraph service.
var (
	// ErrNilEngine indicates NewService was called without an engine.
	ErrNilEngine = errors.New("service requires an engine")

	// ErrMissingGraph indicates an analyze request carried no graph.
	ErrMissingGraph = errors.New("request has no graph")

	// ErrRateLimited indicates the request was rejected by the limiter.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeRateLimited     = "RATE_LIMITED"
	CodeTimeout         = "ANALYSIS_TIMEOUT"
	CodeAnalysisFailed  = "ANALYSIS_FAILED"
)
