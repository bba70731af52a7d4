// Package remote is the HTTP client for the hosted CRM store. It is the only
// package that talks to the backend; the sync engine consumes it through the
// Store interface so tests can substitute a fake.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcus/leadvault/internal/models"
)

// Sentinel errors for the sync-time error taxonomy.
var (
	// ErrUnreachable wraps transport failures and 5xx responses. Retried
	// with backoff, never surfaced to capture callers.
	ErrUnreachable = errors.New("remote store unreachable")
	// ErrUnauthorized and ErrForbidden are permission failures: retried
	// after tenant re-resolution, bounded.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// DuplicateKeyError reports that the remote store already holds a record for
// this client reference. Treated as success by the engine: the existing
// remote id is adopted.
type DuplicateKeyError struct {
	RemoteID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: remote id %s", e.RemoteID)
}

// ValidationError reports a permanent payload rejection. Not retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation rejected: %s", e.Message)
}

// Store is the remote collaborator consumed by the sync engine.
type Store interface {
	// CreateLead writes one lead under the given tenant. forceWrite asks the
	// server to bypass soft quota checks for recovered offline captures.
	CreateLead(req *CreateRequest) (*CreateResponse, error)
	// Ping is the minimal reachability probe. No side effects.
	Ping() error
}

// Client is the HTTP implementation of Store.
type Client struct {
	BaseURL  string
	APIKey   string
	DeviceID string
	HTTP     *http.Client
}

// New creates a new remote store client.
func New(baseURL, apiKey, deviceID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateRequest is the body for POST /v1/tenants/{tenant}/leads.
type CreateRequest struct {
	TenantID   string             `json:"-"`
	LocalRef   string             `json:"local_ref"`
	ForceWrite bool               `json:"force_write,omitempty"`
	Lead       models.LeadPayload `json:"lead"`
	CapturedAt string             `json:"captured_at"`
}

// CreateResponse is the server's acknowledgement of a stored lead.
type CreateResponse struct {
	ID string `json:"id"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// apiError is the standard error body from the server.
type apiError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	RemoteID string `json:"id,omitempty"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// CreateLead writes one lead to the remote store. The server dedupes on
// (device_id, local_ref); a replayed write returns the original id via
// DuplicateKeyError.
func (c *Client) CreateLead(req *CreateRequest) (*CreateResponse, error) {
	if req.TenantID == "" {
		return nil, &ValidationError{Message: "empty tenant id"}
	}
	var resp CreateResponse
	path := fmt.Sprintf("/v1/tenants/%s/leads", req.TenantID)
	if err := c.do("POST", path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping hits /healthz to verify server reachability.
func (c *Client) Ping() error {
	var resp HealthResponse
	if err := c.do("GET", "/healthz", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("%w: health status %q", ErrUnreachable, resp.Status)
	}
	return nil
}

// do executes an authenticated request and maps HTTP failures onto the
// error taxonomy.
func (c *Client) do(method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if c.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.DeviceID)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		switch {
		case resp.StatusCode == http.StatusConflict:
			return &DuplicateKeyError{RemoteID: apiErr.RemoteID}
		case resp.StatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
		case resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrForbidden, apiErr.Message)
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
			msg := apiErr.Message
			if msg == "" {
				msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
			}
			return &ValidationError{Message: msg}
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: HTTP %d", ErrUnreachable, resp.StatusCode)
		}
		if apiErr.Code != "" {
			return &apiErr
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// IsPermission reports whether err is an identity/tenant mismatch rejection.
func IsPermission(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsTransient reports whether err should be retried on a later tick.
// Permission failures count as transient: the tenant is re-resolved per
// attempt and a fresh identity may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnreachable) || IsPermission(err)
}
