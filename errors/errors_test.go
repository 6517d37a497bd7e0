/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
		check    func(error) bool
	}{
		{NewNotFoundError("COMPOSITION", "comp-1"), ErrNotFound, IsNotFound},
		{NewConflictError("ARTIST", "artist-1"), ErrConflict, IsConflict},
		{NewInvalidKeyError("RAGA", "empty identifier"), ErrInvalidKey, IsInvalidKey},
		{NewValidationError("limit", "out of range"), ErrInvalidInput, IsValidationError},
		{NewRateLimitError("search", 30, time.Second), ErrRateLimited, IsRateLimited},
		{NewStorageError("Query", stderrors.New("throttled")), ErrStorageUnavailable, IsStorageUnavailable},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		assert.True(t, tc.check(tc.err))
		// wrapping must not break matching
		wrapped := fmt.Errorf("outer: %w", tc.err)
		assert.True(t, tc.check(wrapped))
	}
}

func TestChecksAreDisjoint(t *testing.T) {
	err := NewNotFoundError("TALA", "tala-1")
	assert.False(t, IsConflict(err))
	assert.False(t, IsValidationError(err))
	assert.False(t, IsRateLimited(err))
	assert.False(t, IsNotFound(nil))
}

func TestConflictErrorfCarriesReason(t *testing.T) {
	err := NewConflictErrorf("COMPOSITION", "comp-1", "version %d was superseded by %d", 3, 4)
	require.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "version 3 was superseded by 4")

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "COMPOSITION", ce.Kind)
}

func TestStorageErrorUnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewStorageError("BatchGet", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "BatchGet")
}

func TestRateLimitErrorFields(t *testing.T) {
	err := NewRateLimitError("write", 20, 1500*time.Millisecond)
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "write", rle.Class)
	assert.Equal(t, 20, rle.Limit)
	assert.Equal(t, 1500*time.Millisecond, rle.RetryAfter)
}
