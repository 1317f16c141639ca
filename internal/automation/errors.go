package automation

import "errors"

// Sentinel errors the engine classifies with errors.Is. Driver implementations
// wrap these with fmt.Errorf("...: %w", ...) so the chain stays matchable.
var (
	// ErrTransient covers network blips, slow page loads, and other failures
	// that usually clear up on their own.
	ErrTransient = errors.New("transient automation failure")

	// ErrAuthenticationLost means the session's cookies are no longer valid
	// and the user has to re-authenticate. Retrying with the same session is
	// pointless.
	ErrAuthenticationLost = errors.New("automation session authentication lost")

	// ErrRateLimited means the target site is throttling the session.
	ErrRateLimited = errors.New("rate limited by target site")

	// ErrStructuralChange means the page no longer matches the structure the
	// driver expects. Requires operator attention, never retried.
	ErrStructuralChange = errors.New("target page structure changed")

	// ErrDailyLimitReached is the application-level cap (e.g. the site's daily
	// Easy Apply limit). A normal terminal outcome, not an automation defect.
	ErrDailyLimitReached = errors.New("daily application limit reached")

	// ErrSessionClosed is returned by drivers whose connection was torn down.
	ErrSessionClosed = errors.New("automation session closed")
)

// Failure wraps a driver error with an optional diagnostic snapshot reference
// (a captured page screenshot or DOM dump). Match with errors.As.
type Failure struct {
	Err      error
	Snapshot string
}

func (f *Failure) Error() string { return f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

// WithSnapshot attaches a snapshot reference to err.
func WithSnapshot(err error, snapshot string) error {
	if err == nil {
		return nil
	}
	return &Failure{Err: err, Snapshot: snapshot}
}
