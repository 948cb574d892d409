package kpi

import "fmt"

// Default policy values. The breakpoints measure days elapsed since the
// anchor stage started.
const (
	DefaultTargetWindowDays = 120
	DefaultWarningAfterDays = 60
	DefaultBreachAfterDays  = 120
)

// Policy centralises every threshold the engine uses.
type Policy struct {
	// TargetWindowDays is the target duration from anchor start to terminal end.
	TargetWindowDays int `json:"target_window_days"`
	// Elapsed days above WarningAfterDays classify as Warning, above
	// BreachAfterDays as Breached.
	WarningAfterDays int `json:"warning_after_days"`
	BreachAfterDays  int `json:"breach_after_days"`
	// FloorDuration counts a same-day stage as one day instead of zero.
	FloorDuration bool `json:"floor_duration"`
}

func DefaultPolicy() Policy {
	return Policy{
		TargetWindowDays: DefaultTargetWindowDays,
		WarningAfterDays: DefaultWarningAfterDays,
		BreachAfterDays:  DefaultBreachAfterDays,
		FloorDuration:    true,
	}
}

func (p Policy) Validate() error {
	if p.TargetWindowDays <= 0 {
		return fmt.Errorf("target window must be positive, got %d", p.TargetWindowDays)
	}
	if p.WarningAfterDays < 0 {
		return fmt.Errorf("warning threshold must not be negative, got %d", p.WarningAfterDays)
	}
	if p.WarningAfterDays >= p.BreachAfterDays {
		return fmt.Errorf("warning threshold (%d) must be below breach threshold (%d)", p.WarningAfterDays, p.BreachAfterDays)
	}
	return nil
}
