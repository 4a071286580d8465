// Package legistar fetches meeting listings and event detail from Legistar
// Web API tenants.
package legistar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL        = "https://webapi.legistar.com/v1"
	DefaultTop            = 200
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 500 * time.Millisecond

	anchorLayout = "2006-01-02T15:04:05"
	tracerName   = "github.com/your-org/meetingcal/internal/legistar"
)

var (
	ErrUnknownSource    = errors.New("legistar: unknown source")
	ErrUnexpectedStatus = errors.New("legistar: unexpected response status")
)

// Record is one raw event object as returned by the API. Numbers are kept
// as json.Number.
type Record map[string]any

// Config describes the tenants the client may reach and its retry policy.
type Config struct {
	BaseURL string
	// Endpoints maps a source id to its Legistar client name, e.g.
	// "milwaukee" -> "milwaukee".
	Endpoints      map[string]string
	Top            int
	MaxAttempts    int
	InitialBackoff time.Duration
	// Location is the zone the lookback anchor is computed in.
	Location   *time.Location
	HTTPClient *http.Client
	Logger     *zap.Logger
	Now        func() time.Time
}

// Client is the SourceClient for every configured Legistar tenant.
type Client struct {
	baseURL        string
	endpoints      map[string]string
	top            int
	maxAttempts    int
	initialBackoff time.Duration
	loc            *time.Location
	http           *http.Client
	logger         *zap.Logger
	now            func() time.Time
	tracer         trace.Tracer
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		endpoints:      map[string]string{},
		top:            cfg.Top,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		loc:            cfg.Location,
		http:           cfg.HTTPClient,
		logger:         cfg.Logger,
		now:            cfg.Now,
		tracer:         otel.Tracer(tracerName),
	}
	for id, name := range cfg.Endpoints {
		c.endpoints[id] = name
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.top <= 0 {
		c.top = DefaultTop
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = DefaultInitialBackoff
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// FetchListing returns events starting on or after the previous week's
// Monday, ordered by date, capped at the configured page size.
func (c *Client) FetchListing(ctx context.Context, sourceID string) ([]Record, error) {
	endpoint, err := c.endpoint(sourceID)
	if err != nil {
		return nil, err
	}

	anchor := PreviousWeekMonday(c.now().In(c.loc))
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("EventDate ge datetime'%s'", anchor.Format(anchorLayout)))
	q.Set("$orderby", "EventDate asc")
	q.Set("$top", fmt.Sprintf("%d", c.top))

	ctx, span := c.tracer.Start(ctx, "legistar.FetchListing", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("meetingcal.source", sourceID),
			attribute.String("meetingcal.anchor", anchor.Format(anchorLayout)),
		))
	defer span.End()

	var records []Record
	if err := c.getJSON(ctx, sourceID, endpoint+"/events?"+q.Encode(), &records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch listing failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("meetingcal.records", len(records)))
	return records, nil
}

// FetchDetail returns a single event without any date filter.
func (c *Client) FetchDetail(ctx context.Context, sourceID, eventID string) (Record, error) {
	endpoint, err := c.endpoint(sourceID)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "legistar.FetchDetail", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("meetingcal.source", sourceID),
			attribute.String("meetingcal.event_id", eventID),
		))
	defer span.End()

	var record Record
	if err := c.getJSON(ctx, sourceID, endpoint+"/events/"+url.PathEscape(eventID), &record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch detail failed")
		return nil, err
	}
	return record, nil
}

func (c *Client) endpoint(sourceID string) (string, error) {
	name, ok := c.endpoints[sourceID]
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, sourceID)
	}
	return c.baseURL + "/" + url.PathEscape(name), nil
}

// getJSON performs a GET with exponential backoff: the n-th retry waits
// initialBackoff * 2^(n-1). Malformed bodies are not retried.
func (c *Client) getJSON(ctx context.Context, sourceID, rawURL string, out any) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = c.initialBackoff << c.maxAttempts

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.get(ctx, rawURL, out)
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Warn("legistar request failed, retrying",
				zap.String("source", sourceID),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("source %s after %d attempt(s): %w", sourceID, attempt, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, req.URL.Path)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode %s: %w", req.URL.Path, err))
	}
	return nil
}
