package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session does not exist or was already handed off.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSourceUnavailable indicates the question source failed or returned no usable batch.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrInvalidTransition is returned for an operation the session's status does not allow.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrMissingSnapshot is returned when results are requested without a completed session.
	ErrMissingSnapshot = errors.New("no completed quiz snapshot")
	// ErrQuestionOutOfRange indicates a navigation target outside the question set.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrChoiceNotFound indicates a submitted answer is not one of the question's choices.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrMissingIdentity is returned when a quiz is started without an email label.
	ErrMissingIdentity = errors.New("identity label required")
)
