// Package remote implements the automation contracts against a browser-worker
// gateway speaking JSON over HTTP. The gateway owns the actual browsers; this
// client opens sessions, forwards operations, and maps gateway error codes
// onto the automation sentinels so the engine can classify failures.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/applypilot/applypilot-api/internal/automation"
)

// Gateway error codes. The gateway reports failures as
// {"code": "...", "message": "...", "snapshot": "..."}.
const (
	codeAuthLost         = "auth_lost"
	codeRateLimited      = "rate_limited"
	codeStructuralChange = "structural_change"
	codeDailyLimit       = "daily_limit"
)

// Opener opens browser sessions through the gateway.
type Opener struct {
	baseURL string
	client  *http.Client
}

var _ automation.SessionOpener = (*Opener)(nil)

// NewOpener creates an Opener for the gateway at baseURL.
func NewOpener(baseURL string) *Opener {
	return &Opener{
		baseURL: baseURL,
		client: &http.Client{
			// Operations ride a real browser; give them room.
			Timeout: 5 * time.Minute,
		},
	}
}

type openRequest struct {
	UserID uuid.UUID            `json:"user_id"`
	Jar    automation.CookieJar `json:"cookie_jar,omitempty"`
}

type openResponse struct {
	SessionID string `json:"session_id"`
}

// OpenSession implements automation.SessionOpener.
func (o *Opener) OpenSession(
	ctx context.Context,
	userID uuid.UUID,
	jar automation.CookieJar,
) (automation.Driver, error) {
	var resp openResponse
	err := o.post(ctx, o.baseURL+"/sessions", openRequest{UserID: userID, Jar: jar}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("%w: gateway returned empty session id", automation.ErrTransient)
	}

	return &driver{
		sessionURL: o.baseURL + "/sessions/" + resp.SessionID,
		client:     o.client,
	}, nil
}

func (o *Opener) post(ctx context.Context, url string, in, out interface{}) error {
	return doJSON(ctx, o.client, http.MethodPost, url, in, out)
}

// driver is one gateway-backed browser session.
type driver struct {
	sessionURL string
	client     *http.Client
	closed     bool
}

var _ automation.Driver = (*driver)(nil)

// Search implements automation.Driver.
func (d *driver) Search(
	ctx context.Context,
	criteria automation.SearchCriteria,
) (*automation.SearchResult, error) {
	if d.closed {
		return nil, automation.ErrSessionClosed
	}
	var result automation.SearchResult
	if err := doJSON(ctx, d.client, http.MethodPost, d.sessionURL+"/search", criteria, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type applyRequest struct {
	Job    automation.JobRef    `json:"job"`
	Resume automation.ResumeRef `json:"resume"`
}

// Apply implements automation.Driver.
func (d *driver) Apply(
	ctx context.Context,
	job automation.JobRef,
	resume automation.ResumeRef,
) (*automation.ApplyResult, error) {
	if d.closed {
		return nil, automation.ErrSessionClosed
	}
	var result automation.ApplyResult
	err := doJSON(ctx, d.client, http.MethodPost, d.sessionURL+"/apply",
		applyRequest{Job: job, Resume: resume}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type descriptionResponse struct {
	Description string `json:"description"`
}

// JobDescription implements automation.Driver.
func (d *driver) JobDescription(ctx context.Context, job automation.JobRef) (string, error) {
	if d.closed {
		return "", automation.ErrSessionClosed
	}
	var resp descriptionResponse
	if err := doJSON(ctx, d.client, http.MethodPost, d.sessionURL+"/description", job, &resp); err != nil {
		return "", err
	}
	return resp.Description, nil
}

// Close implements automation.Driver.
func (d *driver) Close(ctx context.Context) error {
	if d.closed {
		return nil
	}
	d.closed = true
	return doJSON(ctx, d.client, http.MethodDelete, d.sessionURL, nil, nil)
}

// gatewayError is the gateway's failure body.
type gatewayError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Snapshot string `json:"snapshot,omitempty"`
}

// doJSON issues one request and decodes the response. Non-2xx responses are
// mapped to classified automation errors; transport failures classify as
// transient.
func doJSON(
	ctx context.Context,
	client *http.Client,
	method, url string,
	in, out interface{},
) error {
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if in != nil {
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: gateway unreachable: %v", automation.ErrTransient, err)
		}
		return fmt.Errorf("%w: gateway call failed: %v", automation.ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: undecodable gateway response: %v", automation.ErrTransient, err)
		}
		return nil
	}

	var gwErr gatewayError
	_ = json.NewDecoder(resp.Body).Decode(&gwErr)
	return classify(resp.StatusCode, gwErr)
}

// classify maps a gateway failure onto the automation sentinels. The error
// code wins over the HTTP status; unknown codes fall back to status-based
// mapping, and anything unrecognized surfaces unclassified so the engine's
// conservative default applies.
func classify(status int, gwErr gatewayError) error {
	var base error
	switch gwErr.Code {
	case codeAuthLost:
		base = automation.ErrAuthenticationLost
	case codeRateLimited:
		base = automation.ErrRateLimited
	case codeStructuralChange:
		base = automation.ErrStructuralChange
	case codeDailyLimit:
		base = automation.ErrDailyLimitReached
	default:
		switch {
		case status == http.StatusTooManyRequests:
			base = automation.ErrRateLimited
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			base = automation.ErrAuthenticationLost
		case status >= 500:
			base = automation.ErrTransient
		}
	}

	message := gwErr.Message
	if message == "" {
		message = fmt.Sprintf("gateway returned status %d", status)
	}

	var err error
	if base != nil {
		err = fmt.Errorf("%w: %s", base, message)
	} else {
		err = fmt.Errorf("gateway error: %s", message)
	}

	if gwErr.Snapshot != "" {
		return automation.WithSnapshot(err, gwErr.Snapshot)
	}
	return err
}
