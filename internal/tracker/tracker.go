// Package tracker is the application service of welltrack. It guards the
// record store with the configured wells and stage sequences, runs the
// two-phase delete, emits audit events and evaluates wells with the
// metrics engine.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/loykin/welltrack/internal/confirm"
	"github.com/loykin/welltrack/internal/history"
	"github.com/loykin/welltrack/internal/kpi"
	"github.com/loykin/welltrack/internal/metrics"
	"github.com/loykin/welltrack/internal/record"
	"github.com/loykin/welltrack/internal/store"
)

// Options wires a Service. Store, Wells, Workflows and DefaultWorkflow are
// required; the rest have working defaults.
type Options struct {
	Store           store.Store
	Wells           []string
	Workflows       map[string]kpi.Workflow
	DefaultWorkflow string
	Policy          kpi.Policy
	Confirm         *confirm.Manager
	History         history.Sink
	Logger          *slog.Logger
	Now             func() time.Time
}

// WellSummary is the one-line view of a well used by listings.
type WellSummary struct {
	Well         string        `json:"well"`
	Workflow     string        `json:"workflow"`
	CurrentStage string        `json:"current_stage,omitempty"`
	Countdown    kpi.Countdown `json:"countdown"`
	Status       kpi.Status    `json:"status"`
	Color        string        `json:"color"`
}

type Service struct {
	st        store.Store
	wells     []string
	known     map[string]bool
	workflows map[string]kpi.Workflow
	defaultWF string
	engine    *kpi.Engine
	confirm   *confirm.Manager
	sink      history.Sink
	log       *slog.Logger
	now       func() time.Time
}

func New(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("tracker: store is required")
	}
	if len(opts.Wells) == 0 {
		return nil, errors.New("tracker: at least one well is required")
	}
	for name, wf := range opts.Workflows {
		if err := wf.Validate(); err != nil {
			return nil, fmt.Errorf("tracker: %w", err)
		}
		if wf.Name != name {
			return nil, fmt.Errorf("tracker: workflow %s registered as %s", wf.Name, name)
		}
	}
	if _, ok := opts.Workflows[opts.DefaultWorkflow]; !ok {
		return nil, fmt.Errorf("tracker: default workflow %q: %w", opts.DefaultWorkflow, ErrUnknownWorkflow)
	}
	policy := opts.Policy
	if policy == (kpi.Policy{}) {
		policy = kpi.DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}

	s := &Service{
		st:        opts.Store,
		wells:     append([]string(nil), opts.Wells...),
		known:     make(map[string]bool, len(opts.Wells)),
		workflows: opts.Workflows,
		defaultWF: opts.DefaultWorkflow,
		engine:    kpi.NewEngine(policy),
		confirm:   opts.Confirm,
		sink:      opts.History,
		log:       opts.Logger,
		now:       opts.Now,
	}
	for _, w := range s.wells {
		s.known[w] = true
	}
	if s.confirm == nil {
		s.confirm = confirm.NewManager(confirm.NewMemoryStore(), confirm.DefaultTTL)
	}
	if s.sink == nil {
		s.sink = history.Discard{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Wells returns the configured wells in display order.
func (s *Service) Wells() []string { return append([]string(nil), s.wells...) }

func (s *Service) Engine() *kpi.Engine { return s.engine }

// Today is the current civil date in UTC.
func (s *Service) Today() record.Date { return record.DateOf(s.now().UTC()) }

// Workflows returns the configured workflows keyed by name.
func (s *Service) Workflows() map[string]kpi.Workflow { return s.workflows }

func (s *Service) checkWell(well string) error {
	if !s.known[well] {
		return fmt.Errorf("%w: %s", ErrUnknownWell, well)
	}
	return nil
}

// Workflow returns the stage sequence selected for the well, or the default
// one when no selection is stored.
func (s *Service) Workflow(ctx context.Context, well string) (kpi.Workflow, error) {
	if err := s.checkWell(well); err != nil {
		return kpi.Workflow{}, err
	}
	name, err := s.st.GetWorkflowType(ctx, well)
	if errors.Is(err, store.ErrNotFound) {
		return s.workflows[s.defaultWF], nil
	}
	if err != nil {
		return kpi.Workflow{}, fmt.Errorf("load workflow for %s: %w", well, err)
	}
	wf, ok := s.workflows[name]
	if !ok {
		s.log.Warn("stored workflow is not configured, using default",
			"well", well, "workflow", name, "default", s.defaultWF)
		return s.workflows[s.defaultWF], nil
	}
	return wf, nil
}

// SetWorkflow selects the stage sequence of a well. Records of stages the
// new sequence lacks stay in the store and are ignored by reports.
func (s *Service) SetWorkflow(ctx context.Context, well, name, actor string) (kpi.Workflow, error) {
	if err := s.checkWell(well); err != nil {
		return kpi.Workflow{}, err
	}
	wf, ok := s.workflows[name]
	if !ok {
		return kpi.Workflow{}, fmt.Errorf("%w: %s", ErrUnknownWorkflow, name)
	}
	if err := s.st.SetWorkflowType(ctx, well, name); err != nil {
		return kpi.Workflow{}, fmt.Errorf("set workflow for %s: %w", well, err)
	}
	s.log.Info("workflow selected", "well", well, "workflow", name, "actor", actor)
	s.emit(ctx, history.Event{Type: history.EventWorkflow, Actor: actor,
		Record: record.Record{Well: well}, Workflow: name})
	return wf, nil
}

// Upsert validates and stores a stage record. A record with start after end
// is rejected with *record.ValidationError and the stored value is kept.
func (s *Service) Upsert(ctx context.Context, rec record.Record, actor string) (record.Record, error) {
	wf, err := s.Workflow(ctx, rec.Well)
	if err != nil {
		return record.Record{}, err
	}
	if !wf.Has(rec.Process) {
		return record.Record{}, fmt.Errorf("%w: %q is not a stage of workflow %s", ErrUnknownProcess, rec.Process, wf.Name)
	}
	rec = record.New(rec.Well, rec.Process, rec.Start, rec.End)
	if err := s.st.Upsert(ctx, rec); err != nil {
		var ve *record.ValidationError
		if errors.As(err, &ve) {
			metrics.IncValidationFailure(rec.Process)
			s.log.Warn("record rejected", "well", rec.Well, "process", rec.Process,
				"start", ve.Start.String(), "end", ve.End.String(), "actor", actor)
			return record.Record{}, err
		}
		return record.Record{}, fmt.Errorf("upsert %s: %w", rec.Key(), err)
	}
	metrics.IncUpsert()
	s.log.Info("record upserted", "well", rec.Well, "process", rec.Process, "actor", actor)
	s.emit(ctx, history.Event{Type: history.EventUpsert, Actor: actor, Record: rec})
	return rec, nil
}

// SetAnchor records the anchor milestone of the well's workflow as a single
// day: start and end are both date.
func (s *Service) SetAnchor(ctx context.Context, well string, date record.Date, actor string) (record.Record, error) {
	wf, err := s.Workflow(ctx, well)
	if err != nil {
		return record.Record{}, err
	}
	return s.Upsert(ctx, record.New(well, wf.Anchor(), &date, &date), actor)
}

// Get returns one stored record; store.ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, well, process string) (record.Record, error) {
	if err := s.checkWell(well); err != nil {
		return record.Record{}, err
	}
	rec, err := s.st.Get(ctx, well, process)
	if err != nil {
		return record.Record{}, fmt.Errorf("get %s/%s: %w", well, process, err)
	}
	return rec, nil
}

// Records lists the stored records of a well in workflow order. Records of
// stages outside the workflow follow, sorted by name.
func (s *Service) Records(ctx context.Context, well string) ([]record.Record, error) {
	wf, err := s.Workflow(ctx, well)
	if err != nil {
		return nil, err
	}
	recs, err := s.st.ListForWell(ctx, well)
	if err != nil {
		return nil, fmt.Errorf("list records for %s: %w", well, err)
	}
	sortByWorkflow(recs, wf)
	return recs, nil
}

func sortByWorkflow(recs []record.Record, wf kpi.Workflow) {
	rank := func(p string) int {
		if i := wf.Index(p); i >= 0 {
			return i
		}
		return len(wf.Stages)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := rank(recs[i].Process), rank(recs[j].Process)
		if ri != rj {
			return ri < rj
		}
		return recs[i].Process < recs[j].Process
	})
}

// RequestDelete starts the two-phase deletion of a stored record.
func (s *Service) RequestDelete(ctx context.Context, well, process, actor string) (confirm.Pending, error) {
	if _, err := s.Get(ctx, well, process); err != nil {
		return confirm.Pending{}, err
	}
	p, err := s.confirm.RequestDelete(ctx, well, process, actor)
	if err != nil {
		return confirm.Pending{}, err
	}
	s.log.Info("delete requested", "well", well, "process", process, "actor", actor,
		"expires_at", p.ExpiresAt)
	return p, nil
}

// ConfirmDelete consumes the token and deletes the record it names.
func (s *Service) ConfirmDelete(ctx context.Context, token, actor string) (confirm.Pending, error) {
	p, err := s.confirm.Confirm(ctx, token)
	if err != nil {
		return confirm.Pending{}, err
	}
	if err := s.st.Delete(ctx, p.Well, p.Process); err != nil {
		return confirm.Pending{}, fmt.Errorf("delete %s/%s: %w", p.Well, p.Process, err)
	}
	metrics.IncDelete()
	s.log.Info("record deleted", "well", p.Well, "process", p.Process, "actor", actor,
		"requested_by", p.RequestedBy)
	s.emit(ctx, history.Event{Type: history.EventDelete, Actor: actor,
		Record: record.Record{Well: p.Well, Process: p.Process}})
	return p, nil
}

// CancelDelete discards a pending deletion.
func (s *Service) CancelDelete(ctx context.Context, token, actor string) error {
	if err := s.confirm.Cancel(ctx, token); err != nil {
		return err
	}
	s.log.Info("delete cancelled", "token", token, "actor", actor)
	return nil
}

// WellReport evaluates one well as of today.
func (s *Service) WellReport(ctx context.Context, well string, today record.Date) (kpi.WellReport, error) {
	wf, err := s.Workflow(ctx, well)
	if err != nil {
		return kpi.WellReport{}, err
	}
	recs, err := s.st.ListForWell(ctx, well)
	if err != nil {
		return kpi.WellReport{}, fmt.Errorf("list records for %s: %w", well, err)
	}
	return s.engine.Report(well, wf, recs, today), nil
}

// Reports evaluates every configured well from a single store read.
func (s *Service) Reports(ctx context.Context, today record.Date) ([]kpi.WellReport, error) {
	all, err := s.st.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	byWell := make(map[string][]record.Record, len(s.wells))
	for _, r := range all {
		byWell[r.Well] = append(byWell[r.Well], r)
	}
	out := make([]kpi.WellReport, 0, len(s.wells))
	for _, w := range s.wells {
		wf, err := s.Workflow(ctx, w)
		if err != nil {
			return nil, err
		}
		out = append(out, s.engine.Report(w, wf, byWell[w], today))
	}
	return out, nil
}

// Dashboard builds the fleet view. It satisfies metrics.DashboardSource.
func (s *Service) Dashboard(ctx context.Context, today record.Date) (kpi.Dashboard, error) {
	reports, err := s.Reports(ctx, today)
	if err != nil {
		return kpi.Dashboard{}, err
	}
	return s.engine.Dashboard(reports, s.workflows, today), nil
}

// Summaries lists every well with its countdown.
func (s *Service) Summaries(ctx context.Context, today record.Date) ([]WellSummary, error) {
	reports, err := s.Reports(ctx, today)
	if err != nil {
		return nil, err
	}
	out := make([]WellSummary, 0, len(reports))
	for _, r := range reports {
		out = append(out, WellSummary{
			Well:         r.Well,
			Workflow:     r.Workflow,
			CurrentStage: r.CurrentStage,
			Countdown:    r.Countdown,
			Status:       r.Status,
			Color:        r.Color,
		})
	}
	return out, nil
}

func (s *Service) Ping(ctx context.Context) error { return s.st.Ping(ctx) }

// Close releases the store, the pending confirmations and the history sink.
func (s *Service) Close() error {
	errs := []error{s.confirm.Close(), s.st.Close()}
	if c, ok := s.sink.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// emit sends an audit event. Sink failures are logged, never returned: the
// write has already been accepted.
func (s *Service) emit(ctx context.Context, e history.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	if err := s.sink.Send(ctx, e); err != nil {
		s.log.Error("history sink failed", "event", string(e.Type), "well", e.Record.Well,
			"process", e.Record.Process, "error", err)
	}
}
