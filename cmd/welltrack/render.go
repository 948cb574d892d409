package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/loykin/welltrack/pkg/client"
)

var (
	colorGreen  = color.New(color.FgGreen)
	colorOrange = color.New(color.FgYellow)
	colorRed    = color.New(color.FgRed)
	colorGray   = color.New(color.FgHiBlack)
	colorBold   = color.New(color.Bold)
)

// paint renders s in the traffic-light colour the daemon reported.
func paint(colour, s string) string {
	switch colour {
	case "green":
		return colorGreen.Sprint(s)
	case "orange":
		return colorOrange.Sprint(s)
	case "red":
		return colorRed.Sprint(s)
	default:
		return colorGray.Sprint(s)
	}
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return strconv.Itoa(*n)
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func renderWells(out io.Writer, wells []client.WellSummary) error {
	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "WELL\tWORKFLOW\tCURRENT STAGE\tCOUNTDOWN\tSTATUS")
	for _, w := range wells {
		stage := w.CurrentStage
		if stage == "" {
			stage = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", w.Well, w.Workflow, stage, w.Countdown.Label, paint(w.Color, w.Status))
	}
	return tw.Flush()
}

func renderReport(out io.Writer, r client.WellReport) error {
	_, _ = fmt.Fprintf(out, "%s (%s) as of %s\n", colorBold.Sprint(r.Well), r.Workflow, r.Today)
	_, _ = fmt.Fprintf(out, "Countdown: %s\n", paint(r.Color, r.Countdown.Label))
	if r.CurrentStage != "" {
		_, _ = fmt.Fprintf(out, "Current stage: %s\n", r.CurrentStage)
	}
	_, _ = fmt.Fprintln(out)

	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "STAGE\tSTART\tEND\tDURATION\tKPI")
	for _, s := range r.Stages {
		name := s.Process
		if s.Current {
			name = "> " + name
		}
		kpi := s.KPIStatus
		if s.KPITargetDays != nil {
			kpi = fmt.Sprintf("%s (target %d)", s.KPIStatus, *s.KPITargetDays)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, orDash(s.StartDate), orDash(s.EndDate), s.DurationText(), kpi)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out)
	if r.TotalDays != nil {
		_, _ = fmt.Fprintf(out, "Total days: %d\n", *r.TotalDays)
	}
	if r.CompletionPercentage != nil {
		_, _ = fmt.Fprintf(out, "Completion: %.1f%%\n", *r.CompletionPercentage)
	}
	_, _ = fmt.Fprintf(out, "Gap: %s\n", gapText(r.Gap))
	return nil
}

func gapText(g client.Gap) string {
	switch g.Status {
	case "over":
		return fmt.Sprintf("over target by %d days", g.Days)
	case "under":
		return fmt.Sprintf("under target by %d days", g.Days)
	default:
		return "missing anchor or terminal dates"
	}
}

func renderDashboard(out io.Writer, d client.Dashboard) error {
	_, _ = fmt.Fprintf(out, "%s\n\n", colorBold.Sprintf("Completion Progress Days (%s)", d.Today))
	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "WELL\tREMAINING")
	for _, p := range d.Progress {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", p.Well, paint(p.Color, intOrDash(p.RemainingDays)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "\n%s\n\n", colorBold.Sprint("Progress overview"))
	tw = newTable(out)
	_, _ = fmt.Fprintln(tw, "WELL\tTOTAL DAYS\tCOMPLETION\tGAP")
	for _, o := range d.Overview {
		completion := o.Completion
		if completion == "" {
			completion = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Well, intOrDash(o.TotalDays), paint(o.Color, completion), o.GapLine)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Chart) == 0 {
		return nil
	}
	_, _ = fmt.Fprintf(out, "\n%s\n\n", colorBold.Sprint("Stage durations"))
	tw = newTable(out)
	_, _ = fmt.Fprintln(tw, "WELL\tSTAGE\tDAYS")
	for _, p := range d.Chart {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", p.Well, p.Process, p.Duration)
	}
	return tw.Flush()
}

func renderWorkflow(out io.Writer, w client.Workflow) error {
	_, _ = fmt.Fprintf(out, "%s uses workflow %s\n", w.Well, colorBold.Sprint(w.Workflow))
	tw := newTable(out)
	_, _ = fmt.Fprintln(tw, "#\tSTAGE\tKPI DAYS")
	for i, s := range w.Stages {
		target := "-"
		if d, ok := w.KPI[s]; ok {
			target = strconv.Itoa(d)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, s, target)
	}
	return tw.Flush()
}
