// Package webhook posts bridge events to the dashboard's ingest endpoint.
// Dispatch is best-effort: the durability guarantee lives in the queue, so a
// failed delivery is logged and dropped, never retried.
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcus/leadvault/internal/notify"
)

// Payload is the webhook POST body.
type Payload struct {
	DeviceID  string       `json:"device_id"`
	Timestamp string       `json:"timestamp"`
	Event     notify.Event `json:"event"`
}

// Dispatcher is a notify.Subscriber that forwards events over HTTP.
type Dispatcher struct {
	URL      string
	Secret   string
	DeviceID string
	HTTP     *http.Client
}

// NewDispatcher creates a dispatcher for the given ingest URL.
func NewDispatcher(url, secret, deviceID string) *Dispatcher {
	return &Dispatcher{
		URL:      url,
		Secret:   secret,
		DeviceID: deviceID,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify implements notify.Subscriber. Errors are logged, not returned.
func (d *Dispatcher) Notify(ev notify.Event) {
	payload := Payload{
		DeviceID:  d.DeviceID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Event:     ev,
	}
	if err := d.Dispatch(payload); err != nil {
		slog.Debug("webhook: dispatch failed", "kind", ev.Kind, "err", err)
	}
}

// Dispatch performs a synchronous HTTP POST to the webhook URL.
// Returns nil on success (2xx status).
func (d *Dispatcher) Dispatch(payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", d.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "leadvault-webhook/1")

	unixTS := fmt.Sprintf("%d", time.Now().Unix())
	req.Header.Set("X-Leadvault-Timestamp", unixTS)

	if d.Secret != "" {
		mac := hmac.New(sha256.New, []byte(d.Secret))
		mac.Write([]byte(unixTS))
		mac.Write([]byte("."))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Leadvault-Signature", "sha256="+sig)
	}

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", d.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: status %d", d.URL, resp.StatusCode)
	}
	return nil
}
