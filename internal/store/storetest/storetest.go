// Package storetest holds the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/loykin/welltrack/internal/record"
	"github.com/loykin/welltrack/internal/store"
)

// Factory returns a fresh, schema-initialised store. Cleanup is the caller's job.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	t.Run("UpsertGetReplace", func(t *testing.T) { testUpsertGetReplace(t, newStore(t)) })
	t.Run("InProgressRecord", func(t *testing.T) { testInProgress(t, newStore(t)) })
	t.Run("InvalidUpsertLeavesStoreUnchanged", func(t *testing.T) { testInvalidUpsert(t, newStore(t)) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDeleteIdempotent(t, newStore(t)) })
	t.Run("ListForWellAndAll", func(t *testing.T) { testLists(t, newStore(t)) })
	t.Run("WorkflowType", func(t *testing.T) { testWorkflowType(t, newStore(t)) })
	t.Run("PropertyInvalidUpsert", func(t *testing.T) { propInvalidUpsert(t, newStore(t)) })
}

func d(s string) *record.Date {
	v := record.MustParseDate(s)
	return &v
}

func testUpsertGetReplace(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Get(ctx, "W1", "Frac Execution"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before insert, got %v", err)
	}
	if err := s.Upsert(ctx, record.New("W1", "Frac Execution", d("2024-01-01"), d("2024-01-05"))); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.Get(ctx, "W1", "Frac Execution")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Start.String() != "2024-01-01" || got.End.String() != "2024-01-05" {
		t.Fatalf("unexpected record: %+v", got)
	}
	// last write wins
	if err := s.Upsert(ctx, record.New("W1", "Frac Execution", d("2024-01-02"), d("2024-01-03"))); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err = s.Get(ctx, "W1", "Frac Execution")
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if got.Start.String() != "2024-01-02" || got.End.String() != "2024-01-03" {
		t.Fatalf("replace not applied: %+v", got)
	}
	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one record per key, got %d", len(all))
	}
}

func testInProgress(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Upsert(ctx, record.New("W1", "Unhook", d("2024-03-01"), nil)); err != nil {
		t.Fatalf("upsert start-only: %v", err)
	}
	got, err := s.Get(ctx, "W1", "Unhook")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.InProgress() {
		t.Fatalf("expected in-progress record, got %+v", got)
	}
	// a full replacement with no dates clears both columns
	if err := s.Upsert(ctx, record.New("W1", "Unhook", d("2024-03-01"), d("2024-03-04"))); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.Upsert(ctx, record.New("W1", "Unhook", nil, nil)); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = s.Get(ctx, "W1", "Unhook")
	if err != nil {
		t.Fatalf("get cleared: %v", err)
	}
	if got.Start != nil || got.End != nil {
		t.Fatalf("expected both dates cleared, got %+v", got)
	}
}

func testInvalidUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	prior := record.New("W1", "Plug Removal", d("2024-02-01"), d("2024-02-02"))
	if err := s.Upsert(ctx, prior); err != nil {
		t.Fatalf("seed: %v", err)
	}
	err := s.Upsert(ctx, record.New("W1", "Plug Removal", d("2024-02-10"), d("2024-02-09")))
	var ve *record.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	got, err := s.Get(ctx, "W1", "Plug Removal")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Start.String() != "2024-02-01" || got.End.String() != "2024-02-02" {
		t.Fatalf("store changed by rejected write: %+v", got)
	}
	// rejected first write leaves nothing behind
	if err := s.Upsert(ctx, record.New("W2", "Plug Removal", d("2024-02-10"), d("2024-02-09"))); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := s.Get(ctx, "W2", "Plug Removal"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testDeleteIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Upsert(ctx, record.New("W1", "On stream", d("2024-04-01"), d("2024-04-02"))); err != nil {
		t.Fatalf("seed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, "W1", "On stream"); err != nil {
			t.Fatalf("delete #%d: %v", i+1, err)
		}
		if _, err := s.Get(ctx, "W1", "On stream"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("delete #%d: expected ErrNotFound, got %v", i+1, err)
		}
	}
}

func testLists(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed := []record.Record{
		record.New("W1", "Rig Release", d("2024-01-01"), d("2024-01-01")),
		record.New("W1", "Frac Execution", d("2024-01-10"), nil),
		record.New("W2", "Rig Release", d("2024-02-01"), d("2024-02-01")),
	}
	for _, r := range seed {
		if err := s.Upsert(ctx, r); err != nil {
			t.Fatalf("seed %s: %v", r.Key(), err)
		}
	}
	w1, err := s.ListForWell(ctx, "W1")
	if err != nil {
		t.Fatalf("list W1: %v", err)
	}
	if len(w1) != 2 {
		t.Fatalf("expected 2 records for W1, got %d", len(w1))
	}
	for _, r := range w1 {
		if r.Well != "W1" {
			t.Fatalf("foreign record in W1 listing: %+v", r)
		}
	}
	none, err := s.ListForWell(ctx, "W9")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty listing, got %v %v", none, err)
	}
	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func testWorkflowType(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.GetWorkflowType(ctx, "W1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetWorkflowType(ctx, "W1", "HBF"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetWorkflowType(ctx, "W1", "HAF"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	wf, err := s.GetWorkflowType(ctx, "W1")
	if err != nil || wf != "HAF" {
		t.Fatalf("expected HAF, got %q %v", wf, err)
	}
}

// propInvalidUpsert: for any start > end the write fails and a subsequent Get
// returns the prior value.
func propInvalidUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := record.MustParseDate("2024-01-01")
	prior := record.New("WP", "Frac Execution", &base, &base)
	if err := s.Upsert(ctx, prior); err != nil {
		t.Fatalf("seed: %v", err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("start after end is rejected without side effects", prop.ForAll(
		func(offset, gap int) bool {
			end := base.AddDays(offset)
			start := end.AddDays(gap)
			err := s.Upsert(ctx, record.New("WP", "Frac Execution", &start, &end))
			var ve *record.ValidationError
			if !errors.As(err, &ve) {
				return false
			}
			got, err := s.Get(ctx, "WP", "Frac Execution")
			return err == nil && got.Start.Equal(base) && got.End.Equal(base)
		},
		gen.IntRange(-400, 400),
		gen.IntRange(1, 400),
	))

	properties.TestingRun(t)
}
