package models

import "errors"

var (
	// ErrCollectionNotFound is returned when no collection has the requested code.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrInvalidUpload marks CSV payloads that cannot be ingested.
	ErrInvalidUpload = errors.New("invalid upload")
	// ErrInvalidQuery marks request parameters that fail validation.
	ErrInvalidQuery = errors.New("invalid query")
)
