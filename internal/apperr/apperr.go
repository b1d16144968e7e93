// Package apperr defines the typed errors returned by the ledger.
// Callers reach them through wrapped chains with errors.As.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports input that breaks a structural or business rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ClosedPeriodError is returned when a mutation targets a closed month.
type ClosedPeriodError struct {
	Action string
	Year   int
	Month  int
}

func (e *ClosedPeriodError) Error() string {
	return fmt.Sprintf("cannot %s: %04d-%02d is closed", e.Action, e.Year, e.Month)
}

// NegativeQuantityError is returned when reversing a transaction would take a
// holding below zero units.
type NegativeQuantityError struct {
	Symbol    string
	Held      float64
	Reversing float64
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("cannot remove %.4f units of %s: only %.4f held", e.Reversing, e.Symbol, e.Held)
}

// AllocationExceededError is returned when a one-time purchase would exceed
// the bucket's monthly allocation.
type AllocationExceededError struct {
	Bucket     string
	Allocation float64
	Used       float64
	Available  float64
	Requested  float64
}

func (e *AllocationExceededError) Error() string {
	return fmt.Sprintf(
		"purchase of %.2f exceeds %s allocation: allocated %.2f, used %.2f, remaining %.2f",
		e.Requested, e.Bucket, e.Allocation, e.Used, e.Available,
	)
}

// NotFoundError is returned when a referenced record is missing or belongs to
// another user.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound returns a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// LookupError wraps a failed external price or FX lookup.
type LookupError struct {
	Source string
	Key    string
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup for %s unavailable: %v", e.Source, e.Key, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUserError reports whether err is a rejection caused by the caller's input
// or the state of their records rather than a system failure.
func IsUserError(err error) bool {
	var (
		ve *ValidationError
		cp *ClosedPeriodError
		nq *NegativeQuantityError
		ae *AllocationExceededError
		nf *NotFoundError
	)
	return errors.As(err, &ve) || errors.As(err, &cp) || errors.As(err, &nq) ||
		errors.As(err, &ae) || errors.As(err, &nf)
}
