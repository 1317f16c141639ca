package gemini

import "errors"

// Tailoring errors.
var (
	// ErrInvalidConfig indicates the tailor cannot be constructed from the
	// given configuration.
	ErrInvalidConfig = errors.New("invalid tailor configuration")

	// ErrEmptyDescription indicates the job description was empty.
	ErrEmptyDescription = errors.New("job description is empty")

	// ErrContentBlocked indicates the API refused the request on safety
	// grounds. Permanent; retrying the same prompt cannot succeed.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrInvalidResponse indicates the API returned something unusable.
	ErrInvalidResponse = errors.New("invalid API response")

	// ErrTransientFailure indicates the API call failed after exhausting
	// retries on transient errors.
	ErrTransientFailure = errors.New("transient API failure")
)
