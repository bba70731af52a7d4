// Package version checks GitHub for newer leadvault releases. Results are
// cached on disk so the dashboard does not hit the API on every launch.
package version

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ReleaseURL is the endpoint queried for the latest release. Variable so
// tests can point it at a local server.
var ReleaseURL = "https://api.github.com/repos/marcus/leadvault/releases/latest"

// CheckResult holds the result of a version check.
type CheckResult struct {
	CurrentVersion string
	LatestVersion  string
	UpdateURL      string
	HasUpdate      bool
	Error          error
}

type release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Check fetches the latest release and compares it against currentVersion.
// Development builds never report an update.
func Check(currentVersion string) CheckResult {
	result := CheckResult{CurrentVersion: currentVersion}
	if IsDevelopmentVersion(currentVersion) {
		return result
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(ReleaseURL)
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("release api: %s", resp.Status)
		return result
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		result.Error = err
		return result
	}

	result.LatestVersion = rel.TagName
	result.UpdateURL = rel.HTMLURL
	result.HasUpdate = isNewer(rel.TagName, currentVersion)
	return result
}

// IsDevelopmentVersion returns true for non-release versions.
func IsDevelopmentVersion(v string) bool {
	switch v {
	case "", "unknown", "dev", "devel":
		return true
	}
	return strings.HasPrefix(v, "devel+")
}

// validVersionRegex matches semver release tags (v1.2.3, v1.2.3-beta.1).
// Anything else is rejected so the suggested command is never tainted by
// server-supplied text.
var validVersionRegex = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9]+([.-][a-zA-Z0-9]+)*)?$`)

// UpdateCommand returns the go install command for the given release tag, or
// "" when the tag does not look like a version.
func UpdateCommand(tag string) string {
	if !validVersionRegex.MatchString(tag) {
		return ""
	}
	return fmt.Sprintf(
		"go install -ldflags \"-X main.Version=%s\" github.com/marcus/leadvault@%s",
		tag, tag,
	)
}
