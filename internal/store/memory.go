package store

import (
	"context"
	"sort"
	"sync"

	"github.com/loykin/welltrack/internal/record"
)

// Memory is an in-process Store. It is used for tests and for "memory://" DSNs.
type Memory struct {
	mu        sync.RWMutex
	records   map[record.Key]record.Record
	workflows map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		records:   make(map[record.Key]record.Record),
		workflows: make(map[string]string),
	}
}

func (m *Memory) EnsureSchema(context.Context) error { return nil }

func (m *Memory) Upsert(_ context.Context, rec record.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	rec = record.New(rec.Well, rec.Process, rec.Start, rec.End)
	m.mu.Lock()
	m.records[rec.Key()] = rec
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, well, process string) error {
	m.mu.Lock()
	delete(m.records, record.Key{Well: well, Process: process})
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, well, process string) (record.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[record.Key{Well: well, Process: process}]
	if !ok {
		return record.Record{}, ErrNotFound
	}
	return record.New(rec.Well, rec.Process, rec.Start, rec.End), nil
}

func (m *Memory) ListForWell(_ context.Context, well string) ([]record.Record, error) {
	return m.list(func(k record.Key) bool { return k.Well == well }), nil
}

func (m *Memory) ListAll(context.Context) ([]record.Record, error) {
	return m.list(func(record.Key) bool { return true }), nil
}

func (m *Memory) list(match func(record.Key) bool) []record.Record {
	m.mu.RLock()
	out := make([]record.Record, 0, len(m.records))
	for k, rec := range m.records {
		if match(k) {
			out = append(out, record.New(rec.Well, rec.Process, rec.Start, rec.End))
		}
	}
	m.mu.RUnlock()
	// stable output keeps callers and tests deterministic
	sort.Slice(out, func(i, j int) bool {
		if out[i].Well != out[j].Well {
			return out[i].Well < out[j].Well
		}
		return out[i].Process < out[j].Process
	})
	return out
}

func (m *Memory) SetWorkflowType(_ context.Context, well, workflow string) error {
	m.mu.Lock()
	m.workflows[well] = workflow
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetWorkflowType(_ context.Context, well string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.workflows[well]
	if !ok {
		return "", ErrNotFound
	}
	return wf, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }
