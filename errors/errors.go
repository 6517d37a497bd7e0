/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity, version, or relation is absent
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned on duplicate creates and detected concurrent-version races
	ErrConflict = errors.New("entity conflict")

	// ErrInvalidKey is returned when identifiers cannot form a valid key
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidInput is returned when caller-supplied input fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited is returned when an identifier exceeds its request budget
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrStorageUnavailable is returned on backend I/O failures; never retried internally
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNoBinding is returned when no key binding is registered for a type
	ErrNoBinding = errors.New("no key binding registered for type")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError represents a duplicate create or a lost conditional write
type ConflictError struct {
	Kind   string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s with key %q: %s", e.Kind, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s with key %q already exists", e.Kind, e.Key)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// InvalidKeyError represents malformed identifiers handed to the key codec
type InvalidKeyError struct {
	Kind   string
	Detail string
}

func (e *InvalidKeyError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("invalid key for kind %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("invalid key: %s", e.Detail)
}

func (e *InvalidKeyError) Is(target error) bool {
	return target == ErrInvalidKey
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// RateLimitError carries the retry-after duration for a denied request
type RateLimitError struct {
	Class      string
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for class %q (limit %d), retry after %s", e.Class, e.Limit, e.RetryAfter)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// StorageError wraps a backend I/O failure; the cause propagates unchanged
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

// NewConflictError creates a new ConflictError
func NewConflictError(kind, key string) error {
	return &ConflictError{Kind: kind, Key: key}
}

// NewConflictErrorf creates a ConflictError with a reason
func NewConflictErrorf(kind, key, format string, args ...any) error {
	return &ConflictError{Kind: kind, Key: key, Reason: fmt.Sprintf(format, args...)}
}

// NewInvalidKeyError creates a new InvalidKeyError
func NewInvalidKeyError(kind, detail string) error {
	return &InvalidKeyError{Kind: kind, Detail: detail}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewRateLimitError creates a new RateLimitError
func NewRateLimitError(class string, limit int, retryAfter time.Duration) error {
	return &RateLimitError{Class: class, Limit: limit, RetryAfter: retryAfter}
}

// NewStorageError wraps a backend failure for operation op
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidKey checks if an error is an invalid key error
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsStorageUnavailable checks if an error is a backend failure
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
