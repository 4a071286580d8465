package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/meetingcal/internal/legistar"
)

const (
	DefaultTTL      = 30 * time.Minute
	DefaultStaleTTL = 24 * time.Hour
	DefaultHorizon  = 90 * 24 * time.Hour
	DefaultCacheKey = "meetingcal:events:v1"

	tracerName = "github.com/your-org/meetingcal/internal/calendar"
)

var (
	// ErrUnknownSource is shared with the Legistar client so either layer's
	// error matches errors.Is.
	ErrUnknownSource    = legistar.ErrUnknownSource
	ErrAllSourcesFailed = errors.New("calendar: every source failed to sync")
	ErrMissingParameter = errors.New("calendar: missing parameter")

	errCorruptPayload = errors.New("cached payload has no event list")
)

// SourceClient fetches raw records from upstream sources.
type SourceClient interface {
	FetchListing(ctx context.Context, sourceID string) ([]legistar.Record, error)
	FetchDetail(ctx context.Context, sourceID, eventID string) (legistar.Record, error)
}

// Cache is the key/value backing store for snapshots.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
}

type Params struct {
	Sources    []Source
	Client     SourceClient
	Cache      Cache
	Normalizer *Normalizer
	Publisher  Publisher
	Metrics    *Metrics
	Logger     *zap.Logger
	Location   *time.Location
	Now        func() time.Time
	TTL        time.Duration
	StaleTTL   time.Duration
	Horizon    time.Duration
	CacheKey   string
}

// Aggregator fans out to every source, reconciles the results and serves
// them through the cache.
type Aggregator struct {
	sources    []Source
	client     SourceClient
	cache      Cache
	normalizer *Normalizer
	publisher  Publisher
	metrics    *Metrics
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
	ttl        time.Duration
	staleTTL   time.Duration
	horizon    time.Duration
	cacheKey   string
	tracer     trace.Tracer
}

// NewAggregator constructs an Aggregator. Zero durations take the defaults.
func NewAggregator(p Params) (*Aggregator, error) {
	if len(p.Sources) == 0 {
		return nil, errors.New("calendar: at least one source is required")
	}
	if p.Client == nil {
		return nil, errors.New("calendar: source client is required")
	}
	if p.Cache == nil {
		return nil, errors.New("calendar: cache is required")
	}
	a := &Aggregator{
		sources:    append([]Source(nil), p.Sources...),
		client:     p.Client,
		cache:      p.Cache,
		normalizer: p.Normalizer,
		publisher:  p.Publisher,
		metrics:    p.Metrics,
		logger:     p.Logger,
		loc:        p.Location,
		now:        p.Now,
		ttl:        p.TTL,
		staleTTL:   p.StaleTTL,
		horizon:    p.Horizon,
		cacheKey:   p.CacheKey,
		tracer:     otel.Tracer(tracerName),
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.normalizer == nil {
		a.normalizer = NewNormalizer(a.loc)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.ttl <= 0 {
		a.ttl = DefaultTTL
	}
	if a.staleTTL <= 0 {
		a.staleTTL = DefaultStaleTTL
	}
	if a.horizon <= 0 {
		a.horizon = DefaultHorizon
	}
	if a.cacheKey == "" {
		a.cacheKey = DefaultCacheKey
	}
	return a, nil
}

// Sources returns the configured sources in fan-out order.
func (a *Aggregator) Sources() []Source {
	return append([]Source(nil), a.sources...)
}

// GetEvents serves the cached snapshot while it is younger than the TTL,
// otherwise syncs every source. When a sync fails entirely, a snapshot
// younger than the stale window is served with Stale set.
func (a *Aggregator) GetEvents(ctx context.Context, forceRefresh bool) (*EventsResponse, error) {
	ctx, span := a.tracer.Start(ctx, "calendar.GetEvents",
		trace.WithAttributes(attribute.Bool("meetingcal.force_refresh", forceRefresh)))
	defer span.End()

	now := a.now()
	cached, hasCache := a.readCache(ctx)

	if !forceRefresh && hasCache && now.Sub(cached.FetchedAt) < a.ttl {
		a.metrics.observeCache("hit")
		span.SetAttributes(attribute.String("meetingcal.cache", "hit"))
		return newResponse(cached, true, false), nil
	}

	a.metrics.observeCache("miss")
	payload, err := a.sync(ctx, now)
	if err == nil {
		span.SetAttributes(attribute.String("meetingcal.cache", "miss"))
		return newResponse(payload, false, false), nil
	}

	if hasCache && now.Sub(cached.FetchedAt) < a.staleTTL {
		a.metrics.observeCache("stale")
		span.SetAttributes(attribute.String("meetingcal.cache", "stale"))
		a.logger.Warn("sync failed, serving stale snapshot",
			zap.Time("fetched_at", cached.FetchedAt),
			zap.Duration("age", now.Sub(cached.FetchedAt)),
			zap.Error(err),
		)
		return newResponse(cached, true, true), nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "sync failed")
	return nil, err
}

// GetEventDetail looks up one event on its source and returns its video
// and minutes links.
func (a *Aggregator) GetEventDetail(ctx context.Context, client, eventID string) (*EventDetail, error) {
	client = strings.TrimSpace(client)
	eventID = strings.TrimSpace(eventID)
	if client == "" {
		return nil, fmt.Errorf("%w: client", ErrMissingParameter)
	}
	if eventID == "" {
		return nil, fmt.Errorf("%w: eventId", ErrMissingParameter)
	}

	src, ok := a.source(client)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, client)
	}

	ctx, span := a.tracer.Start(ctx, "calendar.GetEventDetail",
		trace.WithAttributes(
			attribute.String("meetingcal.source", src.ID),
			attribute.String("meetingcal.event_id", eventID),
		))
	defer span.End()

	rec, err := a.client.FetchDetail(ctx, src.ID, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "detail lookup failed")
		return nil, fmt.Errorf("fetch event detail: %w", err)
	}
	detail := a.normalizer.Detail(src, rec)
	return &detail, nil
}

func (a *Aggregator) source(id string) (Source, bool) {
	for _, s := range a.sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

type sourceOutcome struct {
	records []legistar.Record
	err     error
}

func (a *Aggregator) sync(ctx context.Context, now time.Time) (CachePayload, error) {
	ctx, span := a.tracer.Start(ctx, "calendar.sync")
	defer span.End()
	started := time.Now()

	outcomes := make([]sourceOutcome, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					outcomes[i] = sourceOutcome{err: fmt.Errorf("source %s: panic: %v", src.ID, r)}
				}
			}()
			records, err := a.client.FetchListing(ctx, src.ID)
			outcomes[i] = sourceOutcome{records: records, err: err}
			return nil
		})
	}
	_ = g.Wait()

	windowStart := legistar.PreviousWeekMonday(now.In(a.loc))
	windowEnd := now.Add(a.horizon)

	var (
		merged    []Event
		failures  error
		succeeded int
		reports   = make([]SourceReport, 0, len(a.sources))
	)
	for i, src := range a.sources {
		out := outcomes[i]
		if out.err != nil {
			a.metrics.observeFetch(src.ID, StatusRejected)
			a.logger.Warn("source sync failed", zap.String("source", src.ID), zap.Error(out.err))
			failures = multierr.Append(failures, out.err)
			reports = append(reports, SourceReport{Source: src.ID, Status: StatusRejected, Error: out.err.Error()})
			continue
		}
		succeeded++
		a.metrics.observeFetch(src.ID, StatusFulfilled)

		kept := 0
		for _, ev := range a.normalizer.Normalize(src, out.records) {
			if inWindow(ev.StartDateTime, windowStart, windowEnd) {
				merged = append(merged, ev)
				kept++
			}
		}
		a.logger.Debug("source synced",
			zap.String("source", src.ID),
			zap.Int("records", len(out.records)),
			zap.Int("events", kept),
		)
		reports = append(reports, SourceReport{Source: src.ID, Status: StatusFulfilled, Events: kept})
	}

	if succeeded == 0 {
		err := fmt.Errorf("%w: %w", ErrAllSourcesFailed, failures)
		span.RecordError(err)
		span.SetStatus(codes.Error, "all sources failed")
		return CachePayload{}, err
	}

	events := Deduplicate(merged)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartDateTime.Before(events[j].StartDateTime)
	})

	payload := CachePayload{
		Events:    events,
		FetchedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	a.writeCache(ctx, payload)
	a.metrics.observeSync(time.Since(started).Seconds(), len(events))
	span.SetAttributes(attribute.Int("meetingcal.events", len(events)))

	a.publish(ctx, SyncNotification{
		ID:         uuid.NewString(),
		FetchedAt:  payload.FetchedAt,
		ExpiresAt:  payload.ExpiresAt,
		EventCount: len(events),
		Sources:    reports,
	})

	a.logger.Info("calendar synced",
		zap.Int("events", len(events)),
		zap.Int("sources_ok", succeeded),
		zap.Int("sources_failed", len(a.sources)-succeeded),
	)
	return payload, nil
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func (a *Aggregator) readCache(ctx context.Context) (CachePayload, bool) {
	raw, ok := a.cache.Get(ctx, a.cacheKey)
	if !ok {
		return CachePayload{}, false
	}
	payload, err := decodePayload(raw)
	if err != nil {
		a.logger.Warn("ignoring unreadable cache entry", zap.String("key", a.cacheKey), zap.Error(err))
		return CachePayload{}, false
	}
	return payload, true
}

func (a *Aggregator) writeCache(ctx context.Context, payload CachePayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("encode cache payload", zap.Error(err))
		return
	}
	if err := a.cache.Set(ctx, a.cacheKey, raw); err != nil {
		a.logger.Warn("cache write failed", zap.String("key", a.cacheKey), zap.Error(err))
	}
}

func (a *Aggregator) publish(ctx context.Context, n SyncNotification) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishSync(ctx, n); err != nil {
		a.logger.Warn("publish sync notification failed", zap.String("sync_id", n.ID), zap.Error(err))
	}
}

// decodePayload rejects entries whose events field is not a JSON array.
func decodePayload(raw []byte) (CachePayload, error) {
	var probe struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return CachePayload{}, err
	}
	if trimmed := bytes.TrimSpace(probe.Events); len(trimmed) == 0 || trimmed[0] != '[' {
		return CachePayload{}, errCorruptPayload
	}
	var payload CachePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return CachePayload{}, err
	}
	if payload.FetchedAt.IsZero() {
		return CachePayload{}, errors.New("cached payload has no fetch time")
	}
	return payload, nil
}
