package client

import (
	"fmt"
	"time"
)

// Dates travel as YYYY-MM-DD strings; a nil pointer is an unset date.

// Record is one stage interval of a well.
type Record struct {
	Well      string  `json:"well"`
	Process   string  `json:"process"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// RecordRequest is the body of PUT /wells/:well/records/:process.
type RecordRequest struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type Countdown struct {
	Status           string `json:"status"`
	Remaining        int    `json:"remaining_days"`
	Elapsed          int    `json:"elapsed_days"`
	DisplayRemaining int    `json:"display_remaining_days"`
	DisplayElapsed   int    `json:"display_elapsed_days"`
	Label            string `json:"label"`
	Unmeasured       bool   `json:"unmeasured,omitempty"`
}

type Gap struct {
	Status string `json:"status"`
	Days   int    `json:"days"`
	Delta  int    `json:"delta"`
}

type StageReport struct {
	Process       string  `json:"process"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
	DurationDays  *int    `json:"duration_days"`
	KPITargetDays *int    `json:"kpi_target_days,omitempty"`
	KPIStatus     string  `json:"kpi_status"`
	Anchor        bool    `json:"anchor,omitempty"`
	InProgress    bool    `json:"in_progress,omitempty"`
	Current       bool    `json:"current,omitempty"`
}

// DurationText renders the duration the way the stage listing shows it.
func (s StageReport) DurationText() string {
	if s.DurationDays == nil {
		return "Add dates"
	}
	return fmt.Sprintf("%d days", *s.DurationDays)
}

// WellReport is the full evaluation of one well.
type WellReport struct {
	Well                 string        `json:"well"`
	Workflow             string        `json:"workflow"`
	Today                string        `json:"today"`
	Stages               []StageReport `json:"stages"`
	CurrentStage         string        `json:"current_stage,omitempty"`
	Countdown            Countdown     `json:"countdown"`
	Status               string        `json:"status"`
	Color                string        `json:"color"`
	TotalDays            *int          `json:"total_days"`
	CompletionPercentage *float64      `json:"completion_percentage"`
	Gap                  Gap           `json:"gap"`
}

// WellSummary is one entry of GET /wells.
type WellSummary struct {
	Well         string    `json:"well"`
	Workflow     string    `json:"workflow"`
	CurrentStage string    `json:"current_stage,omitempty"`
	Countdown    Countdown `json:"countdown"`
	Status       string    `json:"status"`
	Color        string    `json:"color"`
}

type ChartPoint struct {
	Well     string `json:"well"`
	Process  string `json:"process"`
	Duration int    `json:"duration_days"`
}

type ProgressCell struct {
	Well          string `json:"well"`
	RemainingDays *int   `json:"remaining_days"`
	Color         string `json:"color"`
}

type OverviewRow struct {
	Well       string `json:"well"`
	TotalDays  *int   `json:"total_days"`
	Completion string `json:"completion"`
	Color      string `json:"color"`
	GapLine    string `json:"gap_line"`
}

type Dashboard struct {
	Today    string         `json:"today"`
	Wells    []WellReport   `json:"wells"`
	Chart    []ChartPoint   `json:"chart"`
	Progress []ProgressCell `json:"progress"`
	Overview []OverviewRow  `json:"overview"`
}

// Pending is a requested deletion awaiting confirmation.
type Pending struct {
	Token       string    `json:"token"`
	Well        string    `json:"well"`
	Process     string    `json:"process"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Workflow struct {
	Well     string         `json:"well"`
	Workflow string         `json:"workflow"`
	Stages   []string       `json:"stages"`
	KPI      map[string]int `json:"kpi,omitempty"`
}

type Token struct {
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    *Token `json:"token"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("API error %d: %s: %s", e.Status, e.Code, e.Message)
}
