/*
Package errors provides the semantic error taxonomy for the catalog core.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound           = errors.New("entity not found")
	    ErrConflict           = errors.New("entity conflict")
	    ErrInvalidKey         = errors.New("invalid key")
	    ErrInvalidInput       = errors.New("invalid input")
	    ErrRateLimited        = errors.New("rate limit exceeded")
	    ErrStorageUnavailable = errors.New("storage unavailable")
	)

Usage:

	// Check error type
	c, err := repo.GetLatest(ctx, "123")
	if err != nil {
	    if errors.IsNotFound(err) {
	        // Handle not found case
	        return nil, fmt.Errorf("composition %s does not exist", "123")
	    }
	    return nil, err
	}

	// Create typed errors
	err := errors.NewNotFoundError("Composition", "123")
	err := errors.NewValidationError("language", "unknown value")
	err := errors.NewRateLimitError("write", 30, 12*time.Second)

Not-found and rate-limit denial are expected outcomes, returned as typed
results rather than treated as exceptional failures. Storage errors wrap
the backend cause and propagate unchanged; the core performs no retries.
*/
package errors
