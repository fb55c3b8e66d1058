package models

import (
	"fmt"
	"time"
)

// PlanKind represents the subscription state of the backup service
type PlanKind string

const (
	PlanDisabled         PlanKind = "disabled"
	PlanDisabling        PlanKind = "disabling"
	PlanFree             PlanKind = "free"
	PlanPaid             PlanKind = "paid"
	PlanPaidExpiringSoon PlanKind = "paid_expiring_soon"
	PlanPaidAsTester     PlanKind = "paid_as_tester"
)

// BackupPlan is the current plan plus the optimize-local-storage flag carried by paid plans
type BackupPlan struct {
	Kind                 PlanKind `json:"kind"`
	OptimizeLocalStorage bool     `json:"optimize_local_storage"`
}

// IsPaidFamily reports whether the plan is any of the paid variants
func (p BackupPlan) IsPaidFamily() bool {
	switch p.Kind {
	case PlanPaid, PlanPaidExpiringSoon, PlanPaidAsTester:
		return true
	default:
		return false
	}
}

// IsDisabledFamily reports whether backups are off or being turned off
func (p BackupPlan) IsDisabledFamily() bool {
	return p.Kind == PlanDisabled || p.Kind == PlanDisabling
}

// Optimizing reports whether local storage optimization is in effect
func (p BackupPlan) Optimizing() bool {
	return p.IsPaidFamily() && p.OptimizeLocalStorage
}

// String implements fmt.Stringer
func (p BackupPlan) String() string {
	if p.IsPaidFamily() {
		return fmt.Sprintf("%s(optimize=%t)", p.Kind, p.OptimizeLocalStorage)
	}
	return string(p.Kind)
}

// Validate checks that the plan kind is known
func (p BackupPlan) Validate() error {
	switch p.Kind {
	case PlanDisabled, PlanDisabling, PlanFree, PlanPaid, PlanPaidExpiringSoon, PlanPaidAsTester:
	default:
		return fmt.Errorf("unknown backup plan %q", p.Kind)
	}
	if p.OptimizeLocalStorage && !p.IsPaidFamily() {
		return fmt.Errorf("plan %q cannot optimize local storage", p.Kind)
	}
	return nil
}

// RemoteConfig carries the server-tunable windows used by eligibility and dequeue ordering
type RemoteConfig struct {
	OffloadingThreshold time.Duration
	TransitTierMaxAge   time.Duration
	RecencyWindow       time.Duration
}
