package services

import "errors"

var (
	// ErrNotFound means no tracked tweet exists for the given internal id
	ErrNotFound = errors.New("tweet not found")

	// ErrValidation means the caller's input was rejected before any side effect
	ErrValidation = errors.New("invalid request")
)

// Result codes surfaced to API callers on non-error outcomes
const (
	CodeAlreadyReplied = "ALREADY_REPLIED"
)
