package kpi

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/loykin/welltrack/internal/record"
)

func TestEngineProperties(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	base := record.MustParseDate("2024-01-01")

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("complete stage duration is at least one day", prop.ForAll(
		func(offset, length int) bool {
			start := base.AddDays(offset)
			end := start.AddDays(length)
			got, ok := e.StageDuration(record.Record{Process: "P", Start: &start, End: &end})
			return ok && got >= 1
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(0, 400),
	))

	properties.Property("remaining days drop by one per day", prop.ForAll(
		func(offset int) bool {
			snap := NewSnapshot([]record.Record{{Process: "Rig Release", Start: &base, End: &base}})
			today := base.AddDays(offset)
			a := e.RemainingDays(snap, testWorkflow, today)
			b := e.RemainingDays(snap, testWorkflow, today.AddDays(1))
			return a.Remaining-b.Remaining == 1 && a.Remaining == 120-offset
		},
		gen.IntRange(-30, 500),
	))

	properties.Property("gap and completion agree", prop.ForAll(
		func(length int) bool {
			end := base.AddDays(length)
			snap := NewSnapshot([]record.Record{
				{Process: "Rig Release", Start: &base, End: &base},
				{Process: "On stream", Start: &end, End: &end},
			})
			pct, _ := e.CompletionPercentage(snap, testWorkflow)
			g := e.GapAnalysis(snap, testWorkflow)
			if g.Status == GapOver {
				return pct > 100 && g.Days > 0
			}
			return g.Status == GapUnder && pct <= 100 && g.Days >= 0
		},
		gen.IntRange(0, 400),
	))

	properties.TestingRun(t)
}
