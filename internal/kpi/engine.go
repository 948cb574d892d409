// Package kpi derives display metrics from a snapshot of stage records.
// Every function here is pure: the same records, workflow and date always
// produce the same result, and missing dates yield an explicit unknown
// result rather than an error.
package kpi

import (
	"math"
	"strconv"

	"github.com/loykin/welltrack/internal/record"
)

// Status is the traffic-light classification of a well's countdown.
type Status string

const (
	StatusOnTrack  Status = "on_track"
	StatusWarning  Status = "warning"
	StatusBreached Status = "breached"
	// StatusUnknown is only used in reports for wells without an anchor date.
	StatusUnknown Status = "unknown"
)

// Color maps a status to the colour the dashboard paints it with.
func (s Status) Color() string {
	switch s {
	case StatusOnTrack:
		return "green"
	case StatusWarning:
		return "orange"
	case StatusBreached:
		return "red"
	default:
		return "gray"
	}
}

type CountdownStatus string

const (
	CountdownCompleted  CountdownStatus = "completed"
	CountdownInProgress CountdownStatus = "in_progress"
	CountdownNoAnchor   CountdownStatus = "no_anchor"
)

type GapStatus string

const (
	GapOver    GapStatus = "over"
	GapUnder   GapStatus = "under"
	GapUnknown GapStatus = "unknown"
)

type KPIStatus string

const (
	KPIOnTrack       KPIStatus = "on_track"
	KPIDelayed       KPIStatus = "delayed"
	KPINotApplicable KPIStatus = "not_applicable"
)

// Snapshot holds one well's records keyed by process name.
type Snapshot map[string]record.Record

// NewSnapshot indexes records by process. Later duplicates win.
func NewSnapshot(records []record.Record) Snapshot {
	s := make(Snapshot, len(records))
	for _, r := range records {
		s[r.Process] = r
	}
	return s
}

func (s Snapshot) start(process string) *record.Date {
	if r, ok := s[process]; ok {
		return r.Start
	}
	return nil
}

func (s Snapshot) end(process string) *record.Date {
	if r, ok := s[process]; ok {
		return r.End
	}
	return nil
}

// Countdown is the signed remaining-days view of a well against the target
// window. Remaining and Elapsed are never clamped; the Display fields are.
type Countdown struct {
	Status           CountdownStatus `json:"status"`
	Remaining        int             `json:"remaining_days"`
	Elapsed          int             `json:"elapsed_days"`
	DisplayRemaining int             `json:"display_remaining_days"`
	DisplayElapsed   int             `json:"display_elapsed_days"`
	Label            string          `json:"label"`
	// Unmeasured marks a completed well whose anchor start is missing, so
	// Elapsed carries no value.
	Unmeasured bool `json:"unmeasured,omitempty"`
}

// Gap is the difference between the actual programme duration and the
// target window. Days is the magnitude, Delta keeps the sign.
type Gap struct {
	Status GapStatus `json:"status"`
	Days   int       `json:"days"`
	Delta  int       `json:"delta"`
}

// Engine evaluates records under one Policy.
type Engine struct {
	policy Policy
}

func NewEngine(p Policy) *Engine {
	return &Engine{policy: p}
}

func (e *Engine) Policy() Policy { return e.policy }

func (e *Engine) span(start, end record.Date) int {
	days := start.DaysUntil(end)
	if e.policy.FloorDuration && days < 1 {
		return 1
	}
	return days
}

// StageDuration returns the stage length in days, or false when either date
// is missing.
func (e *Engine) StageDuration(r record.Record) (int, bool) {
	if !r.Complete() {
		return 0, false
	}
	return e.span(*r.Start, *r.End), true
}

// TotalDays is the programme length from anchor start to terminal end.
func (e *Engine) TotalDays(snap Snapshot, wf Workflow) (int, bool) {
	start, end := snap.start(wf.Anchor()), snap.end(wf.Terminal())
	if start == nil || end == nil {
		return 0, false
	}
	return e.span(*start, *end), true
}

// RemainingDays evaluates the countdown for a well on the given day.
func (e *Engine) RemainingDays(snap Snapshot, wf Workflow, today record.Date) Countdown {
	target := e.policy.TargetWindowDays
	var c Countdown
	anchor := snap.start(wf.Anchor())
	switch {
	case snap.end(wf.Terminal()) != nil:
		c.Status = CountdownCompleted
		if total, ok := e.TotalDays(snap, wf); ok {
			c.Elapsed = total
		} else {
			c.Unmeasured = true
		}
		c.Label = "HU Completed, On Stream"
	case anchor != nil:
		c.Status = CountdownInProgress
		c.Elapsed = anchor.DaysUntil(today)
		c.Remaining = target - c.Elapsed
		if c.Remaining >= 0 {
			c.Label = strconv.Itoa(c.Remaining) + " days remaining"
		} else {
			c.Label = strconv.Itoa(-c.Remaining) + " days over target"
		}
	default:
		c.Status = CountdownNoAnchor
		c.Remaining = target
		c.Label = "No " + wf.Anchor() + " date"
	}
	c.DisplayRemaining = clamp(c.Remaining, 0, target)
	c.DisplayElapsed = clamp(c.Elapsed, 0, target)
	return c
}

// Classify maps signed remaining days onto the traffic light.
func (e *Engine) Classify(remaining int) Status {
	return e.ClassifyElapsed(e.policy.TargetWindowDays - remaining)
}

func (e *Engine) ClassifyElapsed(elapsed int) Status {
	switch {
	case elapsed <= e.policy.WarningAfterDays:
		return StatusOnTrack
	case elapsed <= e.policy.BreachAfterDays:
		return StatusWarning
	default:
		return StatusBreached
	}
}

// ClassifyCountdown classifies a countdown. Completed wells are judged on
// their total days; wells without an anchor are unknown.
func (e *Engine) ClassifyCountdown(c Countdown) Status {
	switch {
	case c.Status == CountdownNoAnchor, c.Unmeasured:
		return StatusUnknown
	case c.Status == CountdownCompleted:
		return e.ClassifyElapsed(c.Elapsed)
	default:
		return e.Classify(c.Remaining)
	}
}

// CompletionPercentage is total days over the target window, rounded to one
// decimal and not capped at 100.
func (e *Engine) CompletionPercentage(snap Snapshot, wf Workflow) (float64, bool) {
	total, ok := e.TotalDays(snap, wf)
	if !ok {
		return 0, false
	}
	return math.Round(float64(total)*1000/float64(e.policy.TargetWindowDays)) / 10, true
}

func (e *Engine) GapAnalysis(snap Snapshot, wf Workflow) Gap {
	total, ok := e.TotalDays(snap, wf)
	if !ok {
		return Gap{Status: GapUnknown}
	}
	delta := total - e.policy.TargetWindowDays
	g := Gap{Status: GapUnder, Days: -delta, Delta: delta}
	if delta > 0 {
		g.Status = GapOver
		g.Days = delta
	}
	return g
}

// CurrentStage picks the ongoing stage: the first started but unfinished
// stage, else the stage after the latest finished one, else the first stage.
// Stages sharing the latest end date resolve to the later one in sequence.
// It returns false when the latest finished stage is the last in sequence.
func (e *Engine) CurrentStage(snap Snapshot, wf Workflow) (string, bool) {
	for _, p := range wf.Stages {
		if r, ok := snap[p]; ok && r.InProgress() {
			return p, true
		}
	}
	last := -1
	var lastEnd record.Date
	for i, p := range wf.Stages {
		end := snap.end(p)
		if end == nil {
			continue
		}
		if last < 0 || !end.Before(lastEnd) {
			last, lastEnd = i, *end
		}
	}
	if last >= 0 {
		if last+1 < len(wf.Stages) {
			return wf.Stages[last+1], true
		}
		return "", false
	}
	if len(wf.Stages) == 0 {
		return "", false
	}
	return wf.Stages[0], true
}

// StageKPIStatus compares a finished stage against its target.
func (e *Engine) StageKPIStatus(r record.Record, target int) KPIStatus {
	if target <= 0 {
		return KPINotApplicable
	}
	d, ok := e.StageDuration(r)
	if !ok {
		return KPINotApplicable
	}
	if d > target {
		return KPIDelayed
	}
	return KPIOnTrack
}

// OngoingStageKPIStatus compares the time spent so far in an unfinished
// stage against its target. Finished stages fall back to StageKPIStatus.
func (e *Engine) OngoingStageKPIStatus(r record.Record, target int, today record.Date) KPIStatus {
	if !r.InProgress() {
		return e.StageKPIStatus(r, target)
	}
	if target <= 0 {
		return KPINotApplicable
	}
	elapsed := r.Start.DaysUntil(today)
	if elapsed < 1 {
		elapsed = 1
	}
	if elapsed > target {
		return KPIDelayed
	}
	return KPIOnTrack
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
