package domain

import "errors"

var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, e.g. an empty name.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParent indicates a term parent that is missing, belongs to another
	// attribute, or was given for a flat attribute.
	ErrInvalidParent = errors.New("invalid parent term")

	// ErrUnauthorized indicates the caller could not be identified.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller is not an administrator.
	ErrForbidden = errors.New("forbidden")
)
