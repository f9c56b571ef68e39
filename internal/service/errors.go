package service

import "errors"

var (
	// ErrValidation marks a malformed request, rejected before any
	// mutation happens.
	ErrValidation = errors.New("validation failed")

	// ErrCyclicParent is returned when a parent assignment would make a
	// todo its own ancestor.
	ErrCyclicParent = errors.New("todo cannot become its own ancestor")
)
