// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes give clients a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes mirror common HTTP status semantics.
//   - Domain-specific codes name the operation that failed.
//
// Bot control and probe endpoints report their own failures as a 200 reply with
// {"status":"error"}; these codes cover transport and storage failures only.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_document",
//	  "message": "malformed configuration document: games[2].mode: unknown mode \"lucky\""
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeRateLimited      = "rate_limited" // written by middleware.RateLimiter
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeInvalidDocument = "invalid_document"
	ErrCodeValidation      = "validation_failed"
	ErrCodeLoadFailed      = "load_failed"
	ErrCodeSaveFailed      = "save_failed"
	ErrCodeStatusFailed    = "status_failed"
	ErrCodeLogsFailed      = "logs_failed"
	ErrCodeBotFailed       = "bot_failed"
)
