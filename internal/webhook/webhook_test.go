package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marcus/leadvault/internal/notify"
)

func TestDispatchSignsPayload(t *testing.T) {
	const secret = "shhh"

	var gotBody []byte
	var gotSig, gotTS, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Leadvault-Signature")
		gotTS = r.Header.Get("X-Leadvault-Timestamp")
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, secret, "device-1")
	err := d.Dispatch(Payload{DeviceID: "device-1", Timestamp: "2026-08-30T10:00:00Z",
		Event: notify.Event{Kind: notify.KindSynced, Count: 2}})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if gotUA != "leadvault-webhook/1" {
		t.Errorf("user agent: got %q", gotUA)
	}
	if gotTS == "" {
		t.Fatal("timestamp header missing")
	}
	if !strings.HasPrefix(gotSig, "sha256=") {
		t.Fatalf("signature format: got %q", gotSig)
	}

	// Recompute the signature over "ts.body" the way a receiver would.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gotTS))
	mac.Write([]byte("."))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature mismatch:\n got %s\nwant %s", gotSig, want)
	}

	var payload Payload
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if payload.Event.Kind != notify.KindSynced || payload.Event.Count != 2 {
		t.Errorf("payload: got %+v", payload.Event)
	}
}

func TestDispatchWithoutSecretSkipsSignature(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Leadvault-Signature")
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "", "device-1")
	if err := d.Dispatch(Payload{}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if gotSig != "" {
		t.Errorf("unexpected signature without secret: %q", gotSig)
	}
}

func TestDispatchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "", "device-1")
	if err := d.Dispatch(Payload{}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestNotifySwallowsErrors(t *testing.T) {
	// Unreachable URL: Notify must not panic or propagate.
	d := NewDispatcher("http://127.0.0.1:1", "", "device-1")
	d.Notify(notify.Event{Kind: notify.KindQueued, Count: 1})
}
