package domain

import (
	"errors"
	"fmt"
)

// Engine validation sentinels. All are deterministic failures on malformed
// input; callers must not retry without correcting the request.
var (
	ErrInvalidRelativeTime = errors.New("invalid relative time")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidStationIndex = errors.New("invalid station index")
	ErrInvalidSeatLetter   = errors.New("invalid seat letter")
	ErrUnknownSeatStrategy = errors.New("unknown seat strategy")
	ErrInvalidTimezone     = errors.New("invalid timezone")
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Code     string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidRelativeTime) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidStationIndex) ||
		errors.Is(err, ErrInvalidSeatLetter) ||
		errors.Is(err, ErrUnknownSeatStrategy) ||
		errors.Is(err, ErrInvalidTimezone) {
		return true
	}
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// ConflictCode extracts the API error code attached to a conflict, if any.
func ConflictCode(err error) string {
	var target ConflictError
	if errors.As(err, &target) {
		return target.Code
	}
	return ""
}
