package record

import (
	"fmt"
	"strings"
)

// Record is the start/end interval of one process stage on one well.
// (Well, Process) identifies a record; a store holds at most one record per key.
// A record with only Start set is an in-progress stage.
type Record struct {
	Well    string `json:"well"`
	Process string `json:"process"`
	Start   *Date  `json:"start_date"`
	End     *Date  `json:"end_date"`
}

// Key identifies a record.
type Key struct {
	Well    string `json:"well"`
	Process string `json:"process"`
}

func (k Key) String() string { return k.Well + "/" + k.Process }

func (r Record) Key() Key { return Key{Well: r.Well, Process: r.Process} }

// Complete reports whether both dates are set.
func (r Record) Complete() bool { return r.Start != nil && r.End != nil }

// InProgress reports whether the stage has started but not ended.
func (r Record) InProgress() bool { return r.Start != nil && r.End == nil }

// Validate checks the identifying fields and the date ordering invariant.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Well) == "" {
		return fmt.Errorf("record well is required")
	}
	if strings.TrimSpace(r.Process) == "" {
		return fmt.Errorf("record process is required")
	}
	if r.Complete() && r.Start.After(*r.End) {
		return &ValidationError{Process: r.Process, Start: *r.Start, End: *r.End}
	}
	return nil
}

// New builds a record, copying the optional dates.
func New(well, process string, start, end *Date) Record {
	rec := Record{Well: well, Process: process}
	if start != nil {
		s := *start
		rec.Start = &s
	}
	if end != nil {
		e := *end
		rec.End = &e
	}
	return rec
}

// Ptr returns a pointer to d.
func Ptr(d Date) *Date { return &d }
