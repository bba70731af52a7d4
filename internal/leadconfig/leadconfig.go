// Package leadconfig reads and writes the global leadvault configuration
// under ~/.config/leadvault: config.json for settings, auth.json for
// credentials. Every getter has a documented priority chain of
// env var > file > default.
package leadconfig

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// SyncSettings holds sync engine tuning.
type SyncSettings struct {
	URL           string `json:"url"`
	Enabled       *bool  `json:"enabled,omitempty"`        // nil = default true
	BatchSize     *int   `json:"batch_size,omitempty"`     // nil = default 5
	ProbeInterval string `json:"probe_interval,omitempty"` // duration string, default "30s"
}

// QueueSettings holds local queue tuning.
type QueueSettings struct {
	Retention string `json:"retention,omitempty"` // duration string, default "24h"
}

// WebhookSettings configures event dispatch to the dashboard's ingest URL.
type WebhookSettings struct {
	URL    string `json:"url,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// TenantSettings holds locally cached tenant signals.
type TenantSettings struct {
	Selected string `json:"selected,omitempty"` // app-selected tenant
	Fallback string `json:"fallback,omitempty"` // last-known-good
}

// Config is the global config stored at ~/.config/leadvault/config.json.
type Config struct {
	Sync    SyncSettings    `json:"sync"`
	Queue   QueueSettings   `json:"queue"`
	Webhook WebhookSettings `json:"webhook"`
	Tenant  TenantSettings  `json:"tenant"`
}

// AuthCredentials stores authentication state at ~/.config/leadvault/auth.json.
type AuthCredentials struct {
	APIKey        string `json:"api_key"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
	ServerURL     string `json:"server_url,omitempty"`
	DeviceID      string `json:"device_id"`
	SessionTenant string `json:"session_tenant,omitempty"`
	ProfileTenant string `json:"profile_tenant,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

const defaultServerURL = "http://localhost:8080"

// ConfigDir returns ~/.config/leadvault, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "leadvault")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config from ~/.config/leadvault/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/leadvault/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadAuth reads auth credentials from ~/.config/leadvault/auth.json.
// Returns nil, nil when no credentials are stored.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes auth credentials to ~/.config/leadvault/auth.json (0600 perms).
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearAuth removes the auth.json file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetServerURL returns the CRM server URL.
// Priority: LEADVAULT_URL env > auth.json > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("LEADVAULT_URL"); v != "" {
		return v
	}
	if creds, err := LoadAuth(); err == nil && creds != nil && creds.ServerURL != "" {
		return creds.ServerURL
	}
	if cfg, err := LoadConfig(); err == nil && cfg.Sync.URL != "" {
		return cfg.Sync.URL
	}
	return defaultServerURL
}

// GetAPIKey returns the API key.
// Priority: LEADVAULT_API_KEY env > auth.json.
func GetAPIKey() string {
	if v := os.Getenv("LEADVAULT_API_KEY"); v != "" {
		return v
	}
	if creds, err := LoadAuth(); err == nil && creds != nil {
		return creds.APIKey
	}
	return ""
}

// IsAuthenticated returns true if an API key is available.
func IsAuthenticated() bool {
	return GetAPIKey() != ""
}

// GetDeviceID returns the device ID from auth.json, generating one if needed.
func GetDeviceID() (string, error) {
	creds, err := LoadAuth()
	if err != nil {
		return "", err
	}
	if creds != nil && creds.DeviceID != "" {
		return creds.DeviceID, nil
	}
	return GenerateDeviceID()
}

// GenerateDeviceID creates a new random device ID (16 bytes hex).
func GenerateDeviceID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetSyncEnabled returns whether the sync engine should run.
// Priority: LEADVAULT_SYNC env > config.json sync.enabled > true.
func GetSyncEnabled() bool {
	if v := parseBoolEnv("LEADVAULT_SYNC"); v != nil {
		return *v
	}
	if cfg, err := LoadConfig(); err == nil && cfg.Sync.Enabled != nil {
		return *cfg.Sync.Enabled
	}
	return true
}

// GetBatchSize returns the records drained per tick.
// Priority: LEADVAULT_BATCH_SIZE env > config.json sync.batch_size > 5.
func GetBatchSize() int {
	if v := os.Getenv("LEADVAULT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if cfg, err := LoadConfig(); err == nil && cfg.Sync.BatchSize != nil && *cfg.Sync.BatchSize > 0 {
		return *cfg.Sync.BatchSize
	}
	return 5
}

// GetProbeInterval returns the connectivity probe cadence.
// Priority: LEADVAULT_PROBE_INTERVAL env > config.json sync.probe_interval > 30s.
func GetProbeInterval() time.Duration {
	if v := os.Getenv("LEADVAULT_PROBE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if cfg, err := LoadConfig(); err == nil && cfg.Sync.ProbeInterval != "" {
		if d, err := time.ParseDuration(cfg.Sync.ProbeInterval); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

// GetRetention returns how long synced records are kept before compaction.
// Priority: LEADVAULT_RETENTION env > config.json queue.retention > 24h.
func GetRetention() time.Duration {
	if v := os.Getenv("LEADVAULT_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if cfg, err := LoadConfig(); err == nil && cfg.Queue.Retention != "" {
		if d, err := time.ParseDuration(cfg.Queue.Retention); err == nil {
			return d
		}
	}
	return 24 * time.Hour
}

// GetWebhook returns the configured event webhook URL and secret, or empty
// strings when dispatch is disabled.
// Priority: LEADVAULT_WEBHOOK_URL/_SECRET env > config.json webhook.
func GetWebhook() (url, secret string) {
	url = os.Getenv("LEADVAULT_WEBHOOK_URL")
	secret = os.Getenv("LEADVAULT_WEBHOOK_SECRET")
	if url != "" {
		return url, secret
	}
	if cfg, err := LoadConfig(); err == nil {
		return cfg.Webhook.URL, cfg.Webhook.Secret
	}
	return "", ""
}

// GetSelectedTenant returns the app-selected tenant.
// Priority: LEADVAULT_TENANT env > config.json tenant.selected.
func GetSelectedTenant() string {
	if v := os.Getenv("LEADVAULT_TENANT"); v != "" {
		return v
	}
	if cfg, err := LoadConfig(); err == nil {
		return cfg.Tenant.Selected
	}
	return ""
}

// GetFallbackTenant returns the last-known-good static fallback tenant.
// Priority: LEADVAULT_TENANT_FALLBACK env > config.json tenant.fallback.
func GetFallbackTenant() string {
	if v := os.Getenv("LEADVAULT_TENANT_FALLBACK"); v != "" {
		return v
	}
	if cfg, err := LoadConfig(); err == nil {
		return cfg.Tenant.Fallback
	}
	return ""
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := strings.ToLower(os.Getenv(envKey))
	if v == "" {
		return nil
	}
	if v == "1" || v == "true" {
		b := true
		return &b
	}
	if v == "0" || v == "false" {
		b := false
		return &b
	}
	return nil
}
