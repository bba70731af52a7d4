package version

import (
	"strings"
	"testing"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		candidate, current string
		want               bool
	}{
		{"v1.2.4", "v1.2.3", true},
		{"v1.3.0", "v1.2.9", true},
		{"v2.0.0", "v1.9.9", true},
		{"v1.2.3", "v1.2.3", false},
		{"v1.2.2", "v1.2.3", false},
		{"1.2.4", "v1.2.3", true}, // missing v prefix
		{"v1.2.3", "1.2.3", false},
		{"v1.2.3", "v1.2.3-beta", true},      // release beats its prerelease
		{"v1.2.3-beta", "v1.2.3", false},
		{"v1.2.3-beta.2", "v1.2.3-beta.1", true},
		{"not-a-version", "v1.2.3", false},
		{"v1.2.4", "garbage", false},
		{"v1.2", "v1.1.0", false}, // two-part versions rejected
	}
	for _, tt := range tests {
		if got := isNewer(tt.candidate, tt.current); got != tt.want {
			t.Errorf("isNewer(%q, %q) = %t, want %t", tt.candidate, tt.current, got, tt.want)
		}
	}
}

func TestIsDevelopmentVersion(t *testing.T) {
	for _, v := range []string{"", "dev", "devel", "unknown", "devel+abc123"} {
		if !IsDevelopmentVersion(v) {
			t.Errorf("IsDevelopmentVersion(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"v1.2.3", "1.0.0"} {
		if IsDevelopmentVersion(v) {
			t.Errorf("IsDevelopmentVersion(%q) = true, want false", v)
		}
	}
}

func TestUpdateCommand(t *testing.T) {
	cmd := UpdateCommand("v1.2.3")
	if cmd == "" {
		t.Fatal("valid tag rejected")
	}
	if want := "github.com/marcus/leadvault@v1.2.3"; !strings.Contains(cmd, want) {
		t.Errorf("command %q missing %q", cmd, want)
	}

	// Server-supplied garbage must never end up in a suggested command.
	for _, tag := range []string{"v1.2.3; rm -rf /", "$(boom)", "v1.2.3--", "v1.2.3-"} {
		if got := UpdateCommand(tag); got != "" {
			t.Errorf("UpdateCommand(%q) = %q, want empty", tag, got)
		}
	}
}
