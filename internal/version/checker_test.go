package version

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckFindsUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"tag_name": "v2.0.0",
			"html_url": "https://example.com/releases/v2.0.0",
		})
	}))
	defer srv.Close()

	old := ReleaseURL
	ReleaseURL = srv.URL
	t.Cleanup(func() { ReleaseURL = old })

	result := Check("v1.0.0")
	if result.Error != nil {
		t.Fatalf("Check failed: %v", result.Error)
	}
	if !result.HasUpdate {
		t.Error("update not detected")
	}
	if result.LatestVersion != "v2.0.0" {
		t.Errorf("latest: got %s", result.LatestVersion)
	}
	if result.UpdateURL != "https://example.com/releases/v2.0.0" {
		t.Errorf("url: got %s", result.UpdateURL)
	}
}

func TestCheckSkipsDevelopmentBuilds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("development build must not hit the release API")
	}))
	defer srv.Close()

	old := ReleaseURL
	ReleaseURL = srv.URL
	t.Cleanup(func() { ReleaseURL = old })

	result := Check("devel+abc123")
	if result.HasUpdate || result.Error != nil {
		t.Errorf("got %+v, want empty result", result)
	}
}

func TestCheckAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden) // rate limited
	}))
	defer srv.Close()

	old := ReleaseURL
	ReleaseURL = srv.URL
	t.Cleanup(func() { ReleaseURL = old })

	result := Check("v1.0.0")
	if result.Error == nil {
		t.Error("API failure not reported")
	}
	if result.HasUpdate {
		t.Error("failed check must not report an update")
	}
}

func TestCacheRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadCache(); err == nil {
		t.Error("expected error loading absent cache")
	}

	entry := &CacheEntry{
		LatestVersion:  "v1.5.0",
		CurrentVersion: "v1.0.0",
		CheckedAt:      time.Now(),
		HasUpdate:      true,
	}
	if err := SaveCache(entry); err != nil {
		t.Fatalf("SaveCache failed: %v", err)
	}

	loaded, err := LoadCache()
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if loaded.LatestVersion != "v1.5.0" || !loaded.HasUpdate {
		t.Errorf("loaded: got %+v", loaded)
	}
	if !IsCacheValid(loaded, "v1.0.0") {
		t.Error("fresh cache reported invalid")
	}
	// A different running version invalidates the cache.
	if IsCacheValid(loaded, "v1.1.0") {
		t.Error("cache valid for a different binary version")
	}
}

func TestCacheExpires(t *testing.T) {
	entry := &CacheEntry{
		CurrentVersion: "v1.0.0",
		CheckedAt:      time.Now().Add(-cacheTTL - time.Minute),
	}
	if IsCacheValid(entry, "v1.0.0") {
		t.Error("stale cache reported valid")
	}
	if IsCacheValid(nil, "v1.0.0") {
		t.Error("nil cache reported valid")
	}
}
