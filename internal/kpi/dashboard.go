package kpi

import (
	"fmt"

	"github.com/loykin/welltrack/internal/record"
)

// ChartPoint is one bar of the cross-well stage comparison chart.
type ChartPoint struct {
	Well     string `json:"well"`
	Process  string `json:"process"`
	Duration int    `json:"duration_days"`
}

// ProgressCell is one column of the completion progress days row.
// RemainingDays is nil when the well has no anchor date.
type ProgressCell struct {
	Well          string `json:"well"`
	RemainingDays *int   `json:"remaining_days"`
	Color         string `json:"color"`
}

// OverviewRow is one line of the progress overview table.
type OverviewRow struct {
	Well       string `json:"well"`
	TotalDays  *int   `json:"total_days"`
	Completion string `json:"completion"`
	Color      string `json:"color"`
	GapLine    string `json:"gap_line"`
}

type Dashboard struct {
	Today    record.Date    `json:"today"`
	Wells    []WellReport   `json:"wells"`
	Chart    []ChartPoint   `json:"chart"`
	Progress []ProgressCell `json:"progress"`
	Overview []OverviewRow  `json:"overview"`
}

// Dashboard assembles fleet-wide views from per-well reports, keeping their
// order.
func (e *Engine) Dashboard(reports []WellReport, workflows map[string]Workflow, today record.Date) Dashboard {
	d := Dashboard{
		Today:    today,
		Wells:    reports,
		Chart:    []ChartPoint{},
		Progress: make([]ProgressCell, 0, len(reports)),
		Overview: make([]OverviewRow, 0, len(reports)),
	}
	for _, rep := range reports {
		for _, s := range rep.Stages {
			if s.Anchor || s.DurationDays == nil {
				continue
			}
			d.Chart = append(d.Chart, ChartPoint{Well: rep.Well, Process: s.Process, Duration: *s.DurationDays})
		}

		cell := ProgressCell{Well: rep.Well, Color: rep.Color}
		if rep.Countdown.Status != CountdownNoAnchor && !rep.Countdown.Unmeasured {
			remaining := rep.Countdown.Remaining
			cell.RemainingDays = &remaining
		}
		d.Progress = append(d.Progress, cell)

		d.Overview = append(d.Overview, e.overviewRow(rep, workflows[rep.Workflow]))
	}
	return d
}

func (e *Engine) overviewRow(rep WellReport, wf Workflow) OverviewRow {
	row := OverviewRow{Well: rep.Well, TotalDays: rep.TotalDays, Completion: "N/A", Color: StatusUnknown.Color()}
	if rep.CompletionPercentage != nil {
		row.Completion = fmt.Sprintf("%.1f%%", *rep.CompletionPercentage)
	}
	if rep.TotalDays != nil {
		if *rep.TotalDays <= e.policy.TargetWindowDays {
			row.Color = StatusOnTrack.Color()
		} else {
			row.Color = StatusBreached.Color()
		}
	}
	row.GapLine = GapLine(rep.Well, rep.Gap, wf)
	return row
}

// GapLine renders the gap summary sentence for a well.
func GapLine(well string, g Gap, wf Workflow) string {
	switch g.Status {
	case GapOver:
		return fmt.Sprintf("%s: Over target by %d days", well, g.Days)
	case GapUnder:
		return fmt.Sprintf("%s: Under target by %d days", well, g.Days)
	default:
		return fmt.Sprintf("%s: Missing %s or %s dates", well, wf.Anchor(), wf.Terminal())
	}
}
