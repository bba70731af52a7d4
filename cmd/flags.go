package cmd

import (
	"fmt"

	"github.com/marcus/leadvault/internal/models"
	"github.com/spf13/pflag"
)

// statusFlag is a pflag.Value that only accepts known sync statuses.
type statusFlag struct {
	value models.SyncStatus
}

var _ pflag.Value = (*statusFlag)(nil)

func (f *statusFlag) String() string { return string(f.value) }

func (f *statusFlag) Set(s string) error {
	if s == "" {
		f.value = ""
		return nil
	}
	if !models.IsValidStatus(models.SyncStatus(s)) {
		return fmt.Errorf("unknown status %q (valid: pending, syncing, synced, failed_permanent)", s)
	}
	f.value = models.SyncStatus(s)
	return nil
}

func (f *statusFlag) Type() string { return "status" }

// pred returns a filter predicate, or nil when the flag is unset.
func (f *statusFlag) pred() func(*models.LeadRecord) bool {
	if f.value == "" {
		return nil
	}
	want := f.value
	return func(r *models.LeadRecord) bool { return r.SyncStatus == want }
}
