package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"vhours/internal/observability"
)

const volunteerHoursPath = "/volunteer_hours"

// read kinds that supersede each other
const (
	readUsers   = "users"
	readEntries = "entries"
	readStats   = "stats"
)

// APIError is a non-2xx response from the backend. Message is the server's
// {"error": ...} text when the body carries one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

type APIClient struct {
	baseURL    string
	httpClient *http.Client
	counters   *RequestCounters
	metrics    *observability.Prom
	log        *slog.Logger
	tracer     trace.Tracer
	latest     *supersede
}

type ClientOption func(*APIClient)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *APIClient) { c.httpClient = hc }
}

func WithMetrics(p *observability.Prom) ClientOption {
	return func(c *APIClient) { c.metrics = p }
}

func WithLogger(log *slog.Logger) ClientOption {
	return func(c *APIClient) { c.log = log }
}

func WithCounters(counters *RequestCounters) ClientOption {
	return func(c *APIClient) { c.counters = counters }
}

func NewAPIClient(baseURL string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		counters: NewRequestCounters(),
		log:      slog.Default(),
		tracer:   otel.Tracer("vhours/client"),
		latest:   newSupersede(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *APIClient) Counters() *RequestCounters {
	return c.counters
}

// +---------------------+
// |                     |
// |  Volunteer Hours    |
// |                     |
// +---------------------+

func (c *APIClient) ListVolunteers(ctx context.Context) ([]Volunteer, error) {
	var users []Volunteer
	if err := c.fetchLatest(ctx, readUsers, volunteerHoursPath+"/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *APIClient) CreateVolunteer(ctx context.Context, req CreateVolunteerRequest) (Volunteer, error) {
	var v Volunteer
	if err := c.send(ctx, http.MethodPost, volunteerHoursPath+"/users", req, &v); err != nil {
		return Volunteer{}, err
	}
	return v, nil
}

func (c *APIClient) LogHours(ctx context.Context, req LogHoursRequest) (HoursEntry, error) {
	var entry HoursEntry
	if err := c.send(ctx, http.MethodPost, volunteerHoursPath+"/", req, &entry); err != nil {
		return HoursEntry{}, err
	}
	return entry, nil
}

func (c *APIClient) ListEntries(ctx context.Context) ([]HoursEntry, error) {
	var entries []HoursEntry
	if err := c.fetchLatest(ctx, readEntries, volunteerHoursPath+"/all", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *APIClient) VolunteerStats(ctx context.Context, volunteerID string) (VolunteerStats, error) {
	var stats VolunteerStats
	endpoint := volunteerHoursPath + "/view/" + url.PathEscape(volunteerID)
	if err := c.fetchLatest(ctx, readStats, endpoint, &stats); err != nil {
		return VolunteerStats{}, err
	}
	return stats, nil
}

func (c *APIClient) UpdateEntry(ctx context.Context, id int64, req UpdateEntryRequest) (HoursEntry, error) {
	var entry HoursEntry
	endpoint := volunteerHoursPath + "/edit/" + strconv.FormatInt(id, 10)
	if err := c.send(ctx, http.MethodPut, endpoint, req, &entry); err != nil {
		return HoursEntry{}, err
	}
	return entry, nil
}

func (c *APIClient) DeleteEntry(ctx context.Context, id int64) (MessageResponse, error) {
	var res MessageResponse
	endpoint := volunteerHoursPath + "/delete/" + strconv.FormatInt(id, 10)
	if err := c.send(ctx, http.MethodPost, endpoint, nil, &res); err != nil {
		return MessageResponse{}, err
	}
	return res, nil
}

// +---------------------+
// |                     |
// |      Transport      |
// |                     |
// +---------------------+

// fetchLatest sends a GET that supersedes any in-flight GET of the same kind.
func (c *APIClient) fetchLatest(ctx context.Context, kind, endpoint string, out any) error {
	ctx, seq, cancel := c.latest.begin(ctx, kind)
	defer cancel()

	err := c.send(ctx, http.MethodGet, endpoint, nil, out)
	if !c.latest.finish(kind, seq) {
		c.log.DebugContext(ctx, "dropping superseded response", "kind", kind, "endpoint", endpoint)
		return ErrSuperseded
	}
	return err
}

func (c *APIClient) send(ctx context.Context, method, endpoint string, body, out any) error {
	_, err := c.do(ctx, method, endpoint, body, out)
	return err
}

// do performs one counted request. endpoint is either a path under the
// backend root or an absolute URL.
func (c *APIClient) do(ctx context.Context, method, endpoint string, body, out any) (http.Header, error) {
	route := routeLabel(endpoint)
	ctx, span := c.tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.template", route),
		),
	)
	defer span.End()

	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	requestID := uuid.NewString()
	ctx = observability.WithRequestID(ctx, requestID)
	span.SetAttributes(attribute.String("vhours.request_id", requestID))

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	setNoCacheHeaders(req.Header)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.metrics != nil {
		c.metrics.ClientInFlight.Inc()
		defer c.metrics.ClientInFlight.Dec()
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.record(method, route, false, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		c.log.DebugContext(ctx, "request failed", "method", method, "endpoint", endpoint, "err", err)
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.record(method, route, false, start)
		apiErr := decodeAPIError(res)
		span.SetStatus(codes.Error, apiErr.Message)
		c.log.DebugContext(ctx, "request rejected", "method", method, "endpoint", endpoint, "status", res.StatusCode, "err", apiErr.Message)
		return res.Header, apiErr
	}

	c.record(method, route, true, start)
	c.log.DebugContext(ctx, "request ok", "method", method, "endpoint", endpoint, "status", res.StatusCode, "took", time.Since(start))

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.Header, nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return res.Header, fmt.Errorf("error decoding response: %w", err)
	}
	return res.Header, nil
}

func (c *APIClient) record(method, route string, ok bool, start time.Time) {
	c.counters.Record(method, ok)
	if c.metrics != nil {
		c.metrics.ObserveClient(method, route, ok, time.Since(start))
	}
}

func (c *APIClient) resolve(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + endpoint
}

func decodeAPIError(res *http.Response) *APIError {
	statusText := http.StatusText(res.StatusCode)

	var errRes ErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&errRes); err != nil {
		return &APIError{StatusCode: res.StatusCode, Message: "Failed request: " + statusText}
	}
	if errRes.Error == "" {
		return &APIError{StatusCode: res.StatusCode, Message: "Failed request - " + statusText}
	}
	return &APIError{StatusCode: res.StatusCode, Message: errRes.Error}
}

func setNoCacheHeaders(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// routeLabel turns "/volunteer_hours/view/7?x=1" into "/volunteer_hours/view/:id"
// so metric and span names stay low cardinality.
func routeLabel(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil {
		endpoint = u.Path
	}
	parts := strings.Split(endpoint, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
