package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrExchangeNotFound is returned when an exchange is not found
	ErrExchangeNotFound = errors.New("exchange not found")

	// ErrParticipantNotFound is returned when a participant is not found
	ErrParticipantNotFound = errors.New("participant not found")
)
