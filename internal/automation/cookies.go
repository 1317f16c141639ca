package automation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoCookieJar is returned by CookieStore implementations when no jar is
// stored for the user.
var ErrNoCookieJar = errors.New("no stored cookie jar for user")

// Cookie is one stored authentication cookie.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
	Secure  bool      `json:"secure,omitempty"`
}

// CookieJar is the cookie set restored into a fresh browser session so the
// user does not have to log in interactively.
type CookieJar []Cookie

// CookieStore persists authentication cookie jars per user.
type CookieStore interface {
	// SaveJar stores the jar for the user, replacing any previous one.
	SaveJar(ctx context.Context, userID uuid.UUID, jar CookieJar) error

	// LoadJar returns the stored jar, or ErrNoCookieJar.
	LoadJar(ctx context.Context, userID uuid.UUID) (CookieJar, error)

	// DeleteJar removes the stored jar. Deleting a missing jar is not an error.
	DeleteJar(ctx context.Context, userID uuid.UUID) error
}

// CookieRestoringOpener decorates a SessionOpener with cookie restoration:
// on open it loads the user's stored jar and hands it to the inner opener.
// A missing jar is not fatal; the inner opener gets an empty jar and performs
// a fresh login.
type CookieRestoringOpener struct {
	inner   SessionOpener
	cookies CookieStore
}

// NewCookieRestoringOpener wires a cookie store in front of an opener.
func NewCookieRestoringOpener(inner SessionOpener, cookies CookieStore) *CookieRestoringOpener {
	return &CookieRestoringOpener{inner: inner, cookies: cookies}
}

// OpenSession implements SessionOpener.
func (o *CookieRestoringOpener) OpenSession(
	ctx context.Context,
	userID uuid.UUID,
	jar CookieJar,
) (Driver, error) {
	if len(jar) == 0 {
		stored, err := o.cookies.LoadJar(ctx, userID)
		switch {
		case err == nil:
			jar = stored
		case errors.Is(err, ErrNoCookieJar):
			// Fresh login path.
		default:
			return nil, err
		}
	}
	return o.inner.OpenSession(ctx, userID, jar)
}

var _ SessionOpener = (*CookieRestoringOpener)(nil)
