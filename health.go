package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"

	"vhours/internal/observability"
)

const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
	HealthWarning   = "warning"
	HealthUnknown   = "unknown"
)

type ServiceCheck struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type HealthReport struct {
	Status      string                  `json:"status"`
	Version     string                  `json:"version"`
	Environment string                  `json:"environment"`
	Timestamp   string                  `json:"timestamp"`
	Checks      map[string]ServiceCheck `json:"checks"`
}

// HealthIndicator is the one-line backend status shown in the header.
type HealthIndicator struct {
	Status    string        `json:"status"`
	Emoji     string        `json:"emoji"`
	Text      string        `json:"text"`
	CheckedAt time.Time     `json:"checked_at"`
	Latency   time.Duration `json:"latency"`
}

type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertSuccess AlertLevel = "success"
	AlertDanger  AlertLevel = "danger"
)

type StatusAlert struct {
	Level AlertLevel `json:"level"`
	Text  string     `json:"text"`
}

// StatusPage is the full per-service report plus the banner above it.
type StatusPage struct {
	Report    HealthReport `json:"report"`
	Alert     StatusAlert  `json:"alert"`
	Reachable bool         `json:"reachable"`
}

func IndicatorFor(status string) (emoji, text string) {
	switch status {
	case HealthHealthy:
		return "\U0001F7E2", "All Systems Operational"
	case HealthDegraded:
		return "\U0001F7E1", "Systems experiencing issues"
	case HealthUnhealthy:
		return "\U0001F534", "Service Unavailable"
	default:
		return "⚪", "Unable to determine backend status"
	}
}

// EmergencyReport stands in for the backend's report when it cannot be reached.
func EmergencyReport(now time.Time) HealthReport {
	return HealthReport{
		Status:      HealthUnhealthy,
		Environment: HealthUnknown,
		Version:     "unknown - backend unreachable",
		Timestamp:   now.UTC().Format(time.RFC3339),
		Checks: map[string]ServiceCheck{
			"database": {
				Status:  HealthUnhealthy,
				Message: "Database status unknown - backend unreachable",
				Details: map[string]any{"connection_failed": true, "last_error": "Unable to reach backend service"},
			},
			"discord": {
				Status:  HealthUnhealthy,
				Message: "Discord status unknown - backend unreachable",
				Details: map[string]any{"webhook_configured": false, "backend_connection": false},
			},
			"email": {
				Status:  HealthUnhealthy,
				Message: "Email status unknown - backend unreachable",
				Details: map[string]any{"email_sending_enabled": false, "smtp_configured": false, "backend_connection": false},
			},
			"environment": {
				Status:  HealthUnhealthy,
				Message: "Environment status unknown - backend unreachable",
				Details: map[string]any{"all_required_present": false, "backend_connection": false, "status_check_failed": true},
			},
		},
	}
}

type HealthChecker struct {
	api     *APIClient
	enabled bool
	metrics *observability.Prom
	clock   func() time.Time
	log     *slog.Logger
}

func NewHealthChecker(api *APIClient, backendConfigured bool, metrics *observability.Prom, clock func() time.Time, log *slog.Logger) *HealthChecker {
	return &HealthChecker{api: api, enabled: backendConfigured, metrics: metrics, clock: clock, log: log}
}

// Indicator never fails: any error reads as unhealthy.
func (h *HealthChecker) Indicator(ctx context.Context) HealthIndicator {
	ind := HealthIndicator{Status: HealthUnhealthy, CheckedAt: h.clock()}

	if !h.enabled {
		ind.Emoji, ind.Text = IndicatorFor(HealthUnhealthy)
		h.observe(ind.Status)
		return ind
	}

	start := time.Now()
	var report HealthReport
	header, err := h.api.do(ctx, http.MethodGet, "/healthcheck?fcnl=1&c=1", nil, &report)
	ind.Latency = time.Since(start)

	if err != nil {
		h.log.WarnContext(ctx, "backend health check failed", "err", err)
		ind.Emoji, ind.Text = IndicatorFor(HealthUnhealthy)
		h.observe(ind.Status)
		return ind
	}

	h.log.DebugContext(ctx, "backend health fetched", "took", ind.Latency, "x_cache", header.Get("X-Cache"))
	ind.Status = report.Status
	ind.Emoji, ind.Text = IndicatorFor(report.Status)
	h.observe(report.Status)
	return ind
}

func (h *HealthChecker) StatusPage(ctx context.Context) StatusPage {
	if !h.enabled {
		h.log.ErrorContext(ctx, "backend base URL not configured, assuming system failure")
		return StatusPage{
			Report: EmergencyReport(h.clock()),
			Alert:  StatusAlert{Level: AlertDanger, Text: "Backend not configured! Unable to check system status."},
		}
	}

	var report HealthReport
	if _, err := h.api.do(ctx, http.MethodGet, "/healthcheck?statuspage=1", nil, &report); err != nil {
		h.log.ErrorContext(ctx, "failed to fetch health data", "err", err)
		h.observe(HealthUnhealthy)
		return StatusPage{
			Report: EmergencyReport(h.clock()),
			Alert: StatusAlert{
				Level: AlertDanger,
				Text:  fmt.Sprintf("CRITICAL: Backend unreachable! %s - All services assumed down.", err.Error()),
			},
		}
	}

	h.observe(report.Status)
	page := StatusPage{Report: report, Reachable: true}
	if report.Status == HealthHealthy {
		page.Alert = StatusAlert{Level: AlertSuccess, Text: "All systems operational! All services are running normally."}
	} else {
		page.Alert = StatusAlert{Level: AlertDanger, Text: "CRITICAL: System issues detected! Check individual service status below."}
	}
	return page
}

// Watch calls fn every interval until ctx is done, starting right away.
func (h *HealthChecker) Watch(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (h *HealthChecker) observe(status string) {
	if h.metrics != nil {
		h.metrics.HealthChecksTotal.WithLabelValues(status).Inc()
	}
}

func StatusMark(status string) string {
	switch strings.ToLower(status) {
	case HealthHealthy:
		return "✔"
	case HealthUnhealthy:
		return "✖"
	case HealthWarning, HealthDegraded:
		return "⚠"
	default:
		return "?"
	}
}

// TitleKey turns "smtp_configured" into "Smtp Configured".
func TitleKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func FormatDetailValue(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case []any:
		if len(val) == 0 {
			return "None"
		}
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		if len(val) == 0 {
			return "None"
		}
		return strings.Join(val, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// FormatDetails renders details as "Key: value" lines sorted by key.
func FormatDetails(details map[string]any) []string {
	if len(details) == 0 {
		return []string{"No additional details available"}
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, TitleKey(k)+": "+FormatDetailValue(details[k]))
	}
	return lines
}

func RenderIndicator(w io.Writer, ind HealthIndicator) {
	fmt.Fprintf(w, "%s %s (last checked: %s)\n", ind.Emoji, ind.Text, ind.CheckedAt.Format("15:04:05"))
}

func RenderStatusPage(w io.Writer, page StatusPage) {
	r := page.Report
	fmt.Fprintln(w, page.Alert.Text)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Overall:     %s\n", strings.ToUpper(r.Status))
	fmt.Fprintf(w, "Environment: %s\n", strings.ToUpper(r.Environment))
	fmt.Fprintf(w, "Version:     %s\n", r.Version)
	fmt.Fprintf(w, "Updated:     %s\n", formatTimestamp(r.Timestamp))

	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := r.Checks[name]
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s [%s]\n", StatusMark(check.Status), TitleKey(name), strings.ToUpper(check.Status))
		fmt.Fprintf(w, "  %s\n", check.Message)
		for _, line := range FormatDetails(check.Details) {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("Jan 2, 2006 15:04:05")
}
