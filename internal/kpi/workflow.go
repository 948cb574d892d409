package kpi

import (
	"errors"
	"fmt"
)

// Workflow is an ordered stage sequence. The first stage is the anchor and the
// last is the terminal stage. KPI maps a stage to its target duration in days;
// stages without an entry have no per-stage target.
type Workflow struct {
	Name   string         `json:"name"`
	Stages []string       `json:"stages"`
	KPI    map[string]int `json:"kpi,omitempty"`
}

func (w Workflow) Anchor() string {
	if len(w.Stages) == 0 {
		return ""
	}
	return w.Stages[0]
}

func (w Workflow) Terminal() string {
	if len(w.Stages) == 0 {
		return ""
	}
	return w.Stages[len(w.Stages)-1]
}

// Index returns the position of process in the sequence or -1.
func (w Workflow) Index(process string) int {
	for i, s := range w.Stages {
		if s == process {
			return i
		}
	}
	return -1
}

func (w Workflow) Has(process string) bool { return w.Index(process) >= 0 }

// Target returns the KPI target for process; zero or missing targets are absent.
func (w Workflow) Target(process string) (int, bool) {
	days, ok := w.KPI[process]
	if !ok || days <= 0 {
		return 0, false
	}
	return days, true
}

func (w Workflow) Validate() error {
	if w.Name == "" {
		return errors.New("workflow name is required")
	}
	if len(w.Stages) < 2 {
		return fmt.Errorf("workflow %s needs at least an anchor and a terminal stage", w.Name)
	}
	seen := make(map[string]bool, len(w.Stages))
	for _, s := range w.Stages {
		if s == "" {
			return fmt.Errorf("workflow %s has an empty stage name", w.Name)
		}
		if seen[s] {
			return fmt.Errorf("workflow %s lists stage %q twice", w.Name, s)
		}
		seen[s] = true
	}
	for s, days := range w.KPI {
		if !seen[s] {
			return fmt.Errorf("workflow %s has a KPI for unknown stage %q", w.Name, s)
		}
		if days < 0 {
			return fmt.Errorf("workflow %s has a negative KPI for stage %q", w.Name, s)
		}
	}
	return nil
}
