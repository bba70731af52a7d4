// Package output provides styled terminal output helpers (success, error,
// warning, record formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/leadvault/internal/models"
	"golang.org/x/term"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyles = map[models.SyncStatus]lipgloss.Style{
		models.StatusPending:         lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusSyncing:         lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.StatusSynced:          lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusFailedPermanent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeNoTenant     = "no_tenant"
	ErrCodeStorage      = "storage_error"
	ErrCodeOffline      = "offline"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	fmt.Printf(`{"error":{"code":"%s","message":"%s"}}`, code, message)
	fmt.Println()
}

// FormatStatus formats a sync status with color
func FormatStatus(s models.SyncStatus) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// StatusBadge returns a status indicator with symbol
// e.g., "○ pending", "▶ syncing", "✓ synced", "✗ failed_permanent"
func StatusBadge(status models.SyncStatus) string {
	symbols := map[models.SyncStatus]string{
		models.StatusPending:         "○",
		models.StatusSyncing:         "▶",
		models.StatusSynced:          "✓",
		models.StatusFailedPermanent: "✗",
	}
	symbol, ok := symbols[status]
	if !ok {
		symbol = "?"
	}
	style, hasStyle := statusStyles[status]
	if hasStyle {
		return style.Render(fmt.Sprintf("%s %s", symbol, status))
	}
	return fmt.Sprintf("%s %s", symbol, status)
}

// TermWidth returns the terminal width, or a sane default when stdout is not
// a terminal (pipes, CI).
func TermWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// ShortID safely shortens a local id to 8 characters for display
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FormatLeadShort formats a record in one line, sized to the given terminal
// width. Styling is applied after truncation so escape codes are never cut.
func FormatLeadShort(rec *models.LeadRecord, width int) string {
	// Fixed overhead: id(8) + status + time + separators.
	flexible := width - 40
	if flexible < 20 {
		flexible = 20
	}
	var parts []string
	parts = append(parts, titleStyle.Render(ShortID(rec.LocalID)))
	parts = append(parts, Truncate(rec.Payload.Email, flexible/2))
	if rec.Payload.Name != "" {
		parts = append(parts, Truncate(rec.Payload.Name, flexible/2))
	}
	if rec.TenantID != "" {
		parts = append(parts, subtleStyle.Render(rec.TenantID))
	}
	parts = append(parts, FormatStatus(rec.SyncStatus))
	parts = append(parts, subtleStyle.Render(FormatTimeAgo(rec.CapturedAt)))
	return strings.Join(parts, "  ")
}

// FormatLeadLong formats a record with full detail.
func FormatLeadLong(rec *models.LeadRecord) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", rec.LocalID, rec.Payload.Email)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", FormatStatus(rec.SyncStatus)))
	if rec.Payload.Name != "" {
		sb.WriteString(fmt.Sprintf("Name: %s\n", rec.Payload.Name))
	}
	if rec.Payload.Company != "" {
		sb.WriteString(fmt.Sprintf("Company: %s\n", rec.Payload.Company))
	}
	if rec.Payload.Phone != "" {
		sb.WriteString(fmt.Sprintf("Phone: %s\n", rec.Payload.Phone))
	}
	if rec.Payload.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", rec.Payload.Source))
	}
	sb.WriteString(fmt.Sprintf("Tenant: %s\n", orDash(rec.TenantID)))
	sb.WriteString(fmt.Sprintf("Captured: %s (%s)\n", rec.CapturedAt.Format(time.RFC3339), FormatTimeAgo(rec.CapturedAt)))
	if rec.RemoteID != "" {
		sb.WriteString(fmt.Sprintf("Remote ID: %s\n", rec.RemoteID))
	}
	if rec.AttemptCount > 0 {
		sb.WriteString(fmt.Sprintf("Attempts: %d", rec.AttemptCount))
		if rec.LastAttemptAt != nil {
			sb.WriteString(fmt.Sprintf(" (last %s)", FormatTimeAgo(*rec.LastAttemptAt)))
		}
		sb.WriteString("\n")
	}
	if rec.LastError != "" {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("Last error: %s", rec.LastError)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nPENDING:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}
