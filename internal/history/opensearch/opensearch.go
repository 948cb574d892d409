package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loykin/welltrack/internal/history"
)

const maxErrorBody = 512

// Sink indexes record history into OpenSearch, one document per event,
// POSTed to baseURL/index/_doc.
type Sink struct {
	client   *http.Client
	baseURL  string
	index    string
	username string
	password string
}

// document flattens the record key next to the event so dashboards can
// filter by well and stage without nested queries.
type document struct {
	Timestamp time.Time `json:"@timestamp"`
	Well      string    `json:"well"`
	Process   string    `json:"process,omitempty"`
	history.Event
}

func New(baseURL, index string) *Sink {
	return &Sink{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		index:   index,
	}
}

// WithBasicAuth sends credentials with every request.
func (s *Sink) WithBasicAuth(username, password string) *Sink {
	s.username, s.password = username, password
	return s
}

func (s *Sink) Send(ctx context.Context, e history.Event) error {
	b, err := json.Marshal(document{
		Timestamp: e.OccurredAt,
		Well:      e.Record.Well,
		Process:   e.Record.Process,
		Event:     e,
	})
	if err != nil {
		return fmt.Errorf("encode history event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+s.index+"/_doc", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("opensearch sink: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("opensearch sink status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
