package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOpener struct {
	jar CookieJar
	err error
}

func (o *recordingOpener) OpenSession(_ context.Context, _ uuid.UUID, jar CookieJar) (Driver, error) {
	o.jar = jar
	return nil, o.err
}

type staticCookieStore struct {
	jar     CookieJar
	loadErr error
	loaded  bool
}

func (s *staticCookieStore) SaveJar(context.Context, uuid.UUID, CookieJar) error { return nil }

func (s *staticCookieStore) LoadJar(context.Context, uuid.UUID) (CookieJar, error) {
	s.loaded = true
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.jar, nil
}

func (s *staticCookieStore) DeleteJar(context.Context, uuid.UUID) error { return nil }

func TestCookieRestoringOpenerRestoresStoredJar(t *testing.T) {
	stored := CookieJar{{Name: "li_at", Value: "secret", Domain: ".example.com"}}
	inner := &recordingOpener{}
	store := &staticCookieStore{jar: stored}

	opener := NewCookieRestoringOpener(inner, store)
	_, err := opener.OpenSession(context.Background(), uuid.New(), nil)

	require.NoError(t, err)
	assert.Equal(t, stored, inner.jar)
}

func TestCookieRestoringOpenerMissingJarMeansFreshLogin(t *testing.T) {
	inner := &recordingOpener{}
	store := &staticCookieStore{loadErr: ErrNoCookieJar}

	opener := NewCookieRestoringOpener(inner, store)
	_, err := opener.OpenSession(context.Background(), uuid.New(), nil)

	require.NoError(t, err)
	assert.Empty(t, inner.jar)
}

func TestCookieRestoringOpenerKeepsCallerJar(t *testing.T) {
	caller := CookieJar{{Name: "li_at", Value: "fresh", Domain: ".example.com"}}
	inner := &recordingOpener{}
	store := &staticCookieStore{jar: CookieJar{{Name: "li_at", Value: "stale"}}}

	opener := NewCookieRestoringOpener(inner, store)
	_, err := opener.OpenSession(context.Background(), uuid.New(), caller)

	require.NoError(t, err)
	assert.Equal(t, caller, inner.jar, "an explicitly provided jar is not overridden")
	assert.False(t, store.loaded)
}

func TestCookieRestoringOpenerStoreFailure(t *testing.T) {
	inner := &recordingOpener{}
	store := &staticCookieStore{loadErr: errors.New("redis unavailable")}

	opener := NewCookieRestoringOpener(inner, store)
	_, err := opener.OpenSession(context.Background(), uuid.New(), nil)

	assert.Error(t, err)
}
