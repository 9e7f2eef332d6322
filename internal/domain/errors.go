package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation = errors.New("validation error")
	ErrRange      = errors.New("invalid time range")
	ErrOutOfHours = errors.New("slot outside operating hours")
	ErrConflict   = errors.New("slot conflicts with existing occupancy")
	ErrNotFound   = errors.New("not found")
	ErrPast       = errors.New("slot is in the past")
	ErrSync       = errors.New("sync failure")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RangeError is returned when a slot starts at or after its end.
type RangeError struct {
	Start Clock
	End   Clock
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("start %s must be before end %s", e.Start, e.End)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// OutOfHoursError is returned when a slot falls outside the venue's opening
// hours. It matches both ErrOutOfHours and ErrRange.
type OutOfHoursError struct {
	Start  Clock
	End    Clock
	Open   Clock
	Close  Clock
	Reason string
}

func (e *OutOfHoursError) Error() string {
	return fmt.Sprintf("slot %s-%s is outside opening hours %s-%s: %s", e.Start, e.End, e.Open, e.Close, e.Reason)
}

func (e *OutOfHoursError) Unwrap() []error { return []error{ErrOutOfHours, ErrRange} }

// ConflictError names the existing occupancy a requested slot overlaps with.
type ConflictError struct {
	Date   time.Time
	Start  Clock
	End    Clock
	Source string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with %s on %s from %s to %s",
		e.Source, e.Date.Format(DateLayout), e.Start, e.End)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PastError is returned when a mutation targets a slot that already elapsed.
type PastError struct {
	Date time.Time
	End  Clock
}

func (e *PastError) Error() string {
	return fmt.Sprintf("slot on %s ending %s has already elapsed", e.Date.Format(DateLayout), e.End)
}

func (e *PastError) Unwrap() error { return ErrPast }

// SyncError wraps a failure to publish or consume a sync notification.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() []error { return []error{ErrSync, e.Err} }

// ParseError rejects an inbound sync message that cannot be applied as sent.
// Field is empty when the message as a whole is unusable.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "sync message rejected: " + e.Reason
	}
	return fmt.Sprintf("sync message rejected: %s: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrSync }
