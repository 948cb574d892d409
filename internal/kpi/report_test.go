package kpi

import (
	"testing"

	"github.com/loykin/welltrack/internal/record"
)

func TestReportStagesAndCurrent(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	today := record.MustParseDate("2024-02-01")
	rep := e.Report("W1", testWorkflow, []record.Record{
		rec("Rig Release", d("2024-01-01"), d("2024-01-01")),
		rec("Frac Execution", d("2024-01-05"), nil),
		rec("Unrelated", d("2024-01-05"), d("2024-01-06")),
	}, today)

	if len(rep.Stages) != 3 {
		t.Fatalf("stages = %d; want 3", len(rep.Stages))
	}
	if !rep.Stages[0].Anchor || rep.Stages[0].DurationDays == nil || *rep.Stages[0].DurationDays != 1 {
		t.Fatalf("anchor row = %+v", rep.Stages[0])
	}
	frac := rep.Stages[1]
	if !frac.Current || !frac.InProgress || rep.CurrentStage != "Frac Execution" {
		t.Fatalf("frac row = %+v current=%q", frac, rep.CurrentStage)
	}
	// 27 days so far against a 10 day target.
	if frac.KPIStatus != KPIDelayed {
		t.Fatalf("ongoing frac KPI = %s; want delayed", frac.KPIStatus)
	}
	if frac.DurationText() != "Add dates" {
		t.Fatalf("duration text = %q", frac.DurationText())
	}
	if rep.Stages[2].KPIStatus != KPINotApplicable {
		t.Fatalf("On stream KPI = %s", rep.Stages[2].KPIStatus)
	}
	if rep.Countdown.Remaining != 89 || rep.Status != StatusOnTrack || rep.Color != "green" {
		t.Fatalf("countdown = %+v status=%s color=%s", rep.Countdown, rep.Status, rep.Color)
	}
	if rep.TotalDays != nil || rep.CompletionPercentage != nil || rep.Gap.Status != GapUnknown {
		t.Fatalf("unexpected totals: %+v", rep)
	}
}

func TestDashboard(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	today := record.MustParseDate("2024-05-15")
	done := e.Report("W1", testWorkflow, []record.Record{
		rec("Rig Release", d("2024-01-01"), d("2024-01-01")),
		rec("Frac Execution", d("2024-01-05"), d("2024-01-12")),
		rec("On stream", d("2024-04-20"), d("2024-05-01")),
	}, today)
	late := e.Report("W2", testWorkflow, []record.Record{
		{Well: "W2", Process: "Rig Release", Start: d("2024-01-01"), End: d("2024-01-01")},
	}, today)
	empty := e.Report("W3", testWorkflow, nil, today)

	dash := e.Dashboard([]WellReport{done, late, empty}, map[string]Workflow{"HBF": testWorkflow}, today)

	if len(dash.Chart) != 2 {
		t.Fatalf("chart = %+v; want frac and on stream of W1", dash.Chart)
	}
	if dash.Chart[0] != (ChartPoint{Well: "W1", Process: "Frac Execution", Duration: 7}) {
		t.Fatalf("chart[0] = %+v", dash.Chart[0])
	}

	if len(dash.Progress) != 3 {
		t.Fatalf("progress = %+v", dash.Progress)
	}
	if p := dash.Progress[1]; p.RemainingDays == nil || *p.RemainingDays != -15 || p.Color != "red" {
		t.Fatalf("W2 progress = %+v", p)
	}
	if p := dash.Progress[2]; p.RemainingDays != nil || p.Color != "gray" {
		t.Fatalf("W3 progress = %+v", p)
	}
	// 121 days total is past the warning line.
	if p := dash.Progress[0]; p.RemainingDays == nil || *p.RemainingDays != 0 || p.Color != "red" {
		t.Fatalf("W1 progress = %+v", p)
	}

	row := dash.Overview[0]
	if row.Completion != "100.8%" || row.Color != "red" || row.GapLine != "W1: Over target by 1 days" {
		t.Fatalf("W1 overview = %+v", row)
	}
	row = dash.Overview[2]
	if row.Completion != "N/A" || row.GapLine != "W3: Missing Rig Release or On stream dates" {
		t.Fatalf("W3 overview = %+v", row)
	}
}

func TestTerminalWithoutAnchorIsUnknown(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	today := record.MustParseDate("2024-05-15")
	rep := e.Report("W1", testWorkflow, []record.Record{rec("On stream", d("2024-05-01"), d("2024-05-01"))}, today)
	if rep.Status != StatusUnknown || rep.Color != "gray" {
		t.Fatalf("status = %s/%s; want unknown/gray", rep.Status, rep.Color)
	}
	if rep.TotalDays != nil || rep.Gap.Status != GapUnknown {
		t.Fatalf("unexpected totals: %+v", rep)
	}

	dash := e.Dashboard([]WellReport{rep}, map[string]Workflow{"HBF": testWorkflow}, today)
	if p := dash.Progress[0]; p.RemainingDays != nil || p.Color != "gray" {
		t.Fatalf("progress = %+v", p)
	}
}
