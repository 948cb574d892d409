package kpi

import (
	"fmt"

	"github.com/loykin/welltrack/internal/record"
)

// StageReport is one row of a well's stage listing.
type StageReport struct {
	Process       string       `json:"process"`
	Start         *record.Date `json:"start_date"`
	End           *record.Date `json:"end_date"`
	DurationDays  *int         `json:"duration_days"`
	KPITargetDays *int         `json:"kpi_target_days,omitempty"`
	KPIStatus     KPIStatus    `json:"kpi_status"`
	Anchor        bool         `json:"anchor,omitempty"`
	InProgress    bool         `json:"in_progress,omitempty"`
	Current       bool         `json:"current,omitempty"`
}

// DurationText renders the duration the way the stage listing shows it.
func (s StageReport) DurationText() string {
	if s.DurationDays == nil {
		return "Add dates"
	}
	return fmt.Sprintf("%d days", *s.DurationDays)
}

type WellReport struct {
	Well                 string        `json:"well"`
	Workflow             string        `json:"workflow"`
	Today                record.Date   `json:"today"`
	Stages               []StageReport `json:"stages"`
	CurrentStage         string        `json:"current_stage,omitempty"`
	Countdown            Countdown     `json:"countdown"`
	Status               Status        `json:"status"`
	Color                string        `json:"color"`
	TotalDays            *int          `json:"total_days"`
	CompletionPercentage *float64      `json:"completion_percentage"`
	Gap                  Gap           `json:"gap"`
}

// Report evaluates one well. Records for stages outside the workflow are
// ignored.
func (e *Engine) Report(well string, wf Workflow, records []record.Record, today record.Date) WellReport {
	snap := NewSnapshot(records)
	rep := WellReport{
		Well:     well,
		Workflow: wf.Name,
		Today:    today,
		Stages:   make([]StageReport, 0, len(wf.Stages)),
	}
	current, hasCurrent := e.CurrentStage(snap, wf)
	if hasCurrent {
		rep.CurrentStage = current
	}
	for i, p := range wf.Stages {
		r, ok := snap[p]
		if !ok {
			r = record.Record{Well: well, Process: p}
		}
		sr := StageReport{
			Process:    p,
			Start:      r.Start,
			End:        r.End,
			Anchor:     i == 0,
			InProgress: r.InProgress(),
			Current:    hasCurrent && p == current,
		}
		if d, ok := e.StageDuration(r); ok {
			sr.DurationDays = &d
		}
		target, hasTarget := wf.Target(p)
		if hasTarget {
			sr.KPITargetDays = &target
		}
		if sr.Current {
			sr.KPIStatus = e.OngoingStageKPIStatus(r, target, today)
		} else {
			sr.KPIStatus = e.StageKPIStatus(r, target)
		}
		rep.Stages = append(rep.Stages, sr)
	}
	rep.Countdown = e.RemainingDays(snap, wf, today)
	rep.Status = e.ClassifyCountdown(rep.Countdown)
	rep.Color = rep.Status.Color()
	if total, ok := e.TotalDays(snap, wf); ok {
		rep.TotalDays = &total
	}
	if pct, ok := e.CompletionPercentage(snap, wf); ok {
		rep.CompletionPercentage = &pct
	}
	rep.Gap = e.GapAnalysis(snap, wf)
	return rep
}
