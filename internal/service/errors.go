package service

import "errors"

var (
	// ErrInvalidArgument marks caller errors: bad coordinates, radius, precision or missing fields.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSearchFailed marks a proximity search aborted by a failed cell lookup.
	ErrSearchFailed = errors.New("search failed")
	// ErrNotFound is returned when updating or deleting a place that does not exist.
	ErrNotFound = errors.New("not found")
)
