package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SearchCriteria describes one job search run.
type SearchCriteria struct {
	Keywords  []string `json:"keywords"`
	Location  string   `json:"location"`
	Remote    bool     `json:"remote"`
	MaxAgeDay int      `json:"max_age_days,omitempty"`
}

// JobRef points at a single job posting on the target site.
type JobRef struct {
	ExternalID string `json:"external_id"`
	Title      string `json:"title,omitempty"`
	Company    string `json:"company,omitempty"`
	URL        string `json:"url"`
}

// ResumeRef identifies a stored resume to submit with an application.
type ResumeRef struct {
	ID       uuid.UUID `json:"id"`
	FileName string    `json:"file_name,omitempty"`
}

// SearchResult is the outcome of a search run.
type SearchResult struct {
	Jobs      []JobRef  `json:"jobs"`
	Truncated bool      `json:"truncated"`
	FetchedAt time.Time `json:"fetched_at"`
}

// ApplyResult is the outcome of one application submission.
type ApplyResult struct {
	Job         JobRef    `json:"job"`
	Submitted   bool      `json:"submitted"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ResumeArtifact is a generated, job-tailored resume.
type ResumeArtifact struct {
	Job         JobRef `json:"job"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Driver is one live, authenticated browser-automation connection. A Driver
// must never be used by more than one task at a time; the session pool
// enforces exclusive lending.
//
// Every method is expected to enforce its own per-operation timeout and to
// return errors wrapped around (or matching) the sentinels in errors.go so
// the engine can classify them.
type Driver interface {
	// Search runs a job search and collects matching postings.
	Search(ctx context.Context, criteria SearchCriteria) (*SearchResult, error)

	// Apply submits an application for the given posting using the given resume.
	Apply(ctx context.Context, job JobRef, resume ResumeRef) (*ApplyResult, error)

	// JobDescription fetches the posting text, used as input for
	// resume tailoring.
	JobDescription(ctx context.Context, job JobRef) (string, error)

	// Close tears down the underlying browser connection.
	Close(ctx context.Context) error
}

// SessionOpener creates a new authenticated Driver for a user. Implementations
// may restore a previously stored cookie jar to skip interactive login.
type SessionOpener interface {
	OpenSession(ctx context.Context, userID uuid.UUID, jar CookieJar) (Driver, error)
}
