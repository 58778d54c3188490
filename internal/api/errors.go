package api

import "errors"

// Sentinel errors for service operations.
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidPeriod = errors.New("invalid period type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRange  = errors.New("invalid stats range")
	ErrEmptyText     = errors.New("text must not be empty")
	ErrInvalidColor  = errors.New("invalid color")
)
