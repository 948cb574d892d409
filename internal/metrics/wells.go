package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/welltrack/internal/kpi"
	"github.com/loykin/welltrack/internal/record"
)

// DashboardSource computes the fleet dashboard for a given day.
type DashboardSource interface {
	Dashboard(ctx context.Context, today record.Date) (kpi.Dashboard, error)
}

var (
	remainingDesc = prometheus.NewDesc(
		"welltrack_well_remaining_days",
		"Signed days left in the target window; negative once overrun.",
		[]string{"well"}, nil,
	)
	elapsedDesc = prometheus.NewDesc(
		"welltrack_well_elapsed_days",
		"Days since the anchor stage started, or total days for completed wells.",
		[]string{"well"}, nil,
	)
	completionDesc = prometheus.NewDesc(
		"welltrack_well_completion_percent",
		"Programme duration as a percentage of the target window, completed wells only.",
		[]string{"well"}, nil,
	)
	statusDesc = prometheus.NewDesc(
		"welltrack_well_status",
		"1 for the well's current traffic-light status, 0 otherwise.",
		[]string{"well", "status"}, nil,
	)
)

var allStatuses = []kpi.Status{kpi.StatusOnTrack, kpi.StatusWarning, kpi.StatusBreached, kpi.StatusUnknown}

// WellCollector exports per-well countdown gauges computed at scrape time.
type WellCollector struct {
	src     DashboardSource
	now     func() time.Time
	timeout time.Duration
	logger  *slog.Logger
}

func NewWellCollector(src DashboardSource, logger *slog.Logger) *WellCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &WellCollector{src: src, now: time.Now, timeout: 5 * time.Second, logger: logger}
}

func (c *WellCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- remainingDesc
	ch <- elapsedDesc
	ch <- completionDesc
	ch <- statusDesc
}

func (c *WellCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	dash, err := c.src.Dashboard(ctx, record.DateOf(c.now().UTC()))
	if err != nil {
		c.logger.Warn("well metrics unavailable", "error", err)
		ch <- prometheus.NewInvalidMetric(remainingDesc, err)
		return
	}
	for _, w := range dash.Wells {
		if w.Countdown.Status != kpi.CountdownNoAnchor && !w.Countdown.Unmeasured {
			ch <- prometheus.MustNewConstMetric(remainingDesc, prometheus.GaugeValue, float64(w.Countdown.Remaining), w.Well)
			ch <- prometheus.MustNewConstMetric(elapsedDesc, prometheus.GaugeValue, float64(w.Countdown.Elapsed), w.Well)
		}
		if w.CompletionPercentage != nil {
			ch <- prometheus.MustNewConstMetric(completionDesc, prometheus.GaugeValue, *w.CompletionPercentage, w.Well)
		}
		for _, s := range allStatuses {
			v := 0.0
			if w.Status == s {
				v = 1
			}
			ch <- prometheus.MustNewConstMetric(statusDesc, prometheus.GaugeValue, v, w.Well, string(s))
		}
	}
}

// RegisterWellCollector registers a WellCollector for src.
func RegisterWellCollector(r prometheus.Registerer, src DashboardSource, logger *slog.Logger) error {
	return r.Register(NewWellCollector(src, logger))
}
