// Package orchestrator answers questions cache-first: it consults the
// configured cache strategy, falls back to the AISHE server on a miss and
// stores validated answers for next time.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/abdhe/aishe-client/pkg/aishe"
	"github.com/abdhe/aishe-client/pkg/cache"
	"github.com/abdhe/aishe-client/pkg/metrics"
)

// Remote is the uncached AISHE service. *aishe.Client implements it.
type Remote interface {
	Ask(ctx context.Context, question string) (*aishe.AnswerResult, error)
	Health(ctx context.Context) (*aishe.HealthStatus, error)
}

// Answer is an AnswerResult plus where it came from.
type Answer struct {
	aishe.AnswerResult
	CacheHit bool
	Elapsed  time.Duration
}

// ErrNoCache is returned by cache operations when no strategy is configured.
var ErrNoCache = errors.New("orchestrator: no cache strategy configured")

// Config holds the orchestrator configuration.
type Config struct {
	Remote   Remote
	Strategy cache.Strategy // nil disables caching
	Logger   zerolog.Logger
	Tracer   trace.Tracer // nil selects a no-op tracer
}

// Orchestrator is safe for concurrent use. Concurrent misses for the same
// question may each fetch and store; the last write wins.
type Orchestrator struct {
	remote   Remote
	strategy cache.Strategy
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// New creates a new orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Tracer == nil {
		cfg.Tracer = tracenoop.NewTracerProvider().Tracer("aishe")
	}
	return &Orchestrator{
		remote:   cfg.Remote,
		strategy: cfg.Strategy,
		logger:   cfg.Logger.With().Str("component", "orchestrator").Logger(),
		tracer:   cfg.Tracer,
	}
}

// StrategyName returns the active strategy's name, or "none".
func (o *Orchestrator) StrategyName() string {
	if o.strategy == nil {
		return "none"
	}
	return o.strategy.Name()
}

// Ask answers question from cache when possible, otherwise from the server.
func (o *Orchestrator) Ask(ctx context.Context, question string) (answer *Answer, err error) {
	start := time.Now()
	metrics.ActiveRequests.Inc()
	defer metrics.ActiveRequests.Dec()

	ctx, span := o.tracer.Start(ctx, "aishe.ask",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("aishe.cache.strategy", o.StrategyName())),
	)
	cacheStatus := "bypass"
	defer func() {
		if answer != nil {
			span.SetAttributes(attribute.Bool("aishe.cache.hit", answer.CacheHit))
		}
		endSpan(span, err)
		o.record("ask", cacheStatus, start, answer != nil && answer.CacheHit, err)
	}()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, aishe.NewClientError("", aishe.ErrEmptyQuestion)
	}

	// -------------------------------------------------------------------------
	// Step 1: Cache lookup
	// -------------------------------------------------------------------------
	if o.strategy != nil {
		cached, hit, err := o.strategy.Lookup(ctx, question)
		if err != nil {
			return nil, err
		}
		metrics.RecordCacheLookup(o.strategy.Name(), hit)
		if hit {
			cacheStatus = "hit"
			o.logger.Debug().Str("strategy", o.strategy.Name()).Msg("cache hit")
			return &Answer{AnswerResult: *cached, CacheHit: true, Elapsed: time.Since(start)}, nil
		}
		cacheStatus = "miss"
	}

	// -------------------------------------------------------------------------
	// Step 2: Fetch from the server
	// -------------------------------------------------------------------------
	result, err := o.remote.Ask(ctx, question)
	if err != nil {
		return nil, err
	}

	// -------------------------------------------------------------------------
	// Step 3: Store in cache (best effort)
	// -------------------------------------------------------------------------
	if o.strategy != nil {
		if err := o.strategy.Store(ctx, question, result); err != nil {
			metrics.RecordCacheWriteFailure(o.strategy.Name())
			o.logger.Warn().Err(err).Str("strategy", o.strategy.Name()).Msg("cache store failed")
		}
	}

	return &Answer{AnswerResult: *result, Elapsed: time.Since(start)}, nil
}

// CheckHealth queries the server's health endpoint. It is never cached. A
// status other than healthy is reported in the result, not as an error.
func (o *Orchestrator) CheckHealth(ctx context.Context) (status *aishe.HealthStatus, err error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "aishe.health", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if status != nil {
			span.SetAttributes(attribute.String("aishe.health.status", status.Status))
		}
		endSpan(span, err)
		o.record("health", "bypass", start, false, err)
	}()

	status, err = o.remote.Health(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordHealth(status.Healthy())
	return status, nil
}

// Cached reports whether the strategy already holds an answer for question.
func (o *Orchestrator) Cached(ctx context.Context, question string) (bool, error) {
	if o.strategy == nil {
		return false, nil
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return false, aishe.NewClientError("", aishe.ErrEmptyQuestion)
	}
	return o.strategy.Contains(ctx, question)
}

// FlushCache drops every entry owned by the strategy.
func (o *Orchestrator) FlushCache(ctx context.Context) error {
	if o.strategy == nil {
		return ErrNoCache
	}
	f, ok := o.strategy.(cache.Flusher)
	if !ok {
		return cache.ErrFlushUnsupported
	}
	if err := f.Flush(ctx); err != nil {
		return err
	}
	o.logger.Info().Str("strategy", o.strategy.Name()).Msg("cache flushed")
	return nil
}

func (o *Orchestrator) record(operation, cacheStatus string, start time.Time, hit bool, err error) {
	metrics.RequestLatency.WithLabelValues(operation, cacheStatus).Observe(time.Since(start).Seconds())

	outcome := "success"
	switch {
	case err != nil:
		outcome = aishe.Kind(err)
		if outcome == "" {
			outcome = "error"
		}
	case hit:
		outcome = "cache_hit"
	}
	metrics.RequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("aishe.error.kind", aishe.Kind(err)))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
