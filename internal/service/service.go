// Package service runs the memory flows for one process: extracting and
// applying model deltas, asking the model for a refresh, and remembering the
// last report per identity.
//
// The store and reconciler do no locking of their own. Service serializes
// every load-modify-save cycle per identity; different identities run in
// parallel.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rcliao/memtier/internal/delta"
	"github.com/rcliao/memtier/internal/llm"
	"github.com/rcliao/memtier/internal/logging"
	"github.com/rcliao/memtier/internal/model"
	"github.com/rcliao/memtier/internal/prompt"
	"github.com/rcliao/memtier/internal/reconcile"
	"github.com/rcliao/memtier/internal/reportcache"
	"github.com/rcliao/memtier/internal/store"
)

// TracerName is the instrumentation scope of service spans.
const TracerName = "memtier/service"

// DefaultModelTimeout bounds a model call when none is configured.
const DefaultModelTimeout = 60 * time.Second

// ErrNoCompleter is returned by Refresh when no model is configured.
var ErrNoCompleter = errors.New("service: no model configured")

// Service orchestrates store, reconciler, prompt builder and model.
type Service struct {
	store      *store.Store
	reconciler *reconcile.Reconciler
	builder    *prompt.Builder
	completer  llm.Completer
	cache      reportcache.Cache
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
	timeout    time.Duration
	locks      *keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithCompleter sets the model used by Refresh.
func WithCompleter(c llm.Completer) Option {
	return func(s *Service) { s.completer = c }
}

// WithReportCache replaces the in-process report cache.
func WithReportCache(c reportcache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPromptBuilder replaces the default prompt builder.
func WithPromptBuilder(b *prompt.Builder) Option {
	return func(s *Service) { s.builder = b }
}

// WithReconciler replaces the default reconciler.
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(s *Service) { s.reconciler = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithClock overrides the time source for reconciliation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithModelTimeout bounds each model call.
func WithModelTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// New creates a Service on top of st.
func New(st *store.Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		reconciler: reconcile.New(),
		builder:    prompt.New(0),
		cache:      reportcache.NewMemory(),
		logger:     logging.Discard(),
		tracer:     otel.Tracer(TracerName),
		now:        func() time.Time { return time.Now().UTC() },
		timeout:    DefaultModelTimeout,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply extracts a delta from raw model output and merges it into the
// identity's document. When no delta can be extracted or parsed the
// document is left untouched and the error is returned; render it for users
// with reconcile.FailureMessage.
func (s *Service) Apply(ctx context.Context, identity, raw string) (*reconcile.Report, error) {
	ctx, span := s.tracer.Start(ctx, "service.Apply", trace.WithAttributes(
		attribute.String("memtier.identity", identity),
		attribute.Int("memtier.input_bytes", len(raw)),
	))
	defer span.End()

	unlock := s.locks.Lock(identity)
	defer unlock()

	log := s.runLogger("apply", identity)
	report, err := s.apply(ctx, log, identity, raw)
	return report, finish(span, report, err)
}

// Refresh asks the model for a delta given conversation and applies it.
func (s *Service) Refresh(ctx context.Context, identity, conversation string, in prompt.Input) (*reconcile.Report, error) {
	ctx, span := s.tracer.Start(ctx, "service.Refresh", trace.WithAttributes(
		attribute.String("memtier.identity", identity),
	))
	defer span.End()

	if s.completer == nil {
		return nil, finish(span, nil, ErrNoCompleter)
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	log := s.runLogger("refresh", identity)

	state := s.load(ctx, log, identity)
	p, err := s.builder.Build(state, in)
	if err != nil {
		return nil, finish(span, nil, err)
	}
	span.SetAttributes(
		attribute.Int("memtier.prompt.packed", p.Packed),
		attribute.Int("memtier.prompt.omitted", p.Omitted),
	)

	raw, err := s.complete(ctx, llm.Request{
		Prompt:       p.Text,
		Context:      conversation,
		SystemPrompt: p.System,
	})
	if err != nil {
		log.Warn("model call failed", "error", err)
		return nil, finish(span, nil, fmt.Errorf("model: %w", err))
	}
	log.Debug("model replied", "bytes", len(raw))

	report, err := s.apply(ctx, log, identity, raw)
	return report, finish(span, report, err)
}

// Prompt renders the text Refresh would send, without calling the model.
func (s *Service) Prompt(ctx context.Context, identity string, in prompt.Input) (*prompt.Prompt, error) {
	ctx, span := s.tracer.Start(ctx, "service.Prompt", trace.WithAttributes(
		attribute.String("memtier.identity", identity),
	))
	defer span.End()

	unlock := s.locks.Lock(identity)
	defer unlock()

	state := s.load(ctx, s.runLogger("prompt", identity), identity)
	p, err := s.builder.Build(state, in)
	return p, finish(span, nil, err)
}

// State returns the current document, materializing it if needed.
func (s *Service) State(ctx context.Context, identity string) *model.MemoryState {
	unlock := s.locks.Lock(identity)
	defer unlock()
	return s.load(ctx, s.runLogger("show", identity), identity)
}

// Reset discards the identity's document.
func (s *Service) Reset(ctx context.Context, identity string) error {
	unlock := s.locks.Lock(identity)
	defer unlock()
	if err := s.store.Reset(ctx, identity); err != nil {
		return err
	}
	s.runLogger("reset", identity).Info("memory reset")
	return nil
}

// Export returns the identity's document as stored, materializing it if
// needed.
func (s *Service) Export(ctx context.Context, identity string) ([]byte, error) {
	unlock := s.locks.Lock(identity)
	defer unlock()
	return s.store.Export(ctx, identity)
}

// Import replaces the identity's document with data.
func (s *Service) Import(ctx context.Context, identity string, data []byte) (*model.MemoryState, error) {
	unlock := s.locks.Lock(identity)
	defer unlock()
	state, err := s.store.Import(ctx, identity, data)
	if err != nil {
		return nil, err
	}
	s.runLogger("import", identity).Info("memory imported", "entries", state.Len())
	return state, nil
}

// LastReport returns the report from the most recent successful apply.
func (s *Service) LastReport(ctx context.Context, identity string) (string, bool, error) {
	return s.cache.Get(ctx, identity)
}

func (s *Service) apply(ctx context.Context, log *slog.Logger, identity, raw string) (*reconcile.Report, error) {
	d, err := delta.ExtractAndParse(raw)
	if err != nil {
		log.Warn("delta rejected", "error", err)
		return nil, err
	}
	if d.Skipped > 0 {
		log.Debug("skipped malformed operations", "skipped", d.Skipped)
	}

	state := s.load(ctx, log, identity)
	report := s.reconciler.Apply(state, d, s.now())

	if err := s.store.Save(ctx, identity, state); err != nil {
		log.Error("save failed", "error", err)
		return nil, fmt.Errorf("save: %w", err)
	}

	totals := report.Totals()
	log.Info("memory updated",
		"added", totals.Added,
		"updated", totals.Updated,
		"deleted", totals.Deleted,
	)

	if err := s.cache.Set(ctx, identity, report.String()); err != nil {
		log.Warn("cache report", "error", err)
	}
	return report, nil
}

func (s *Service) load(ctx context.Context, log *slog.Logger, identity string) *model.MemoryState {
	res := s.store.Load(ctx, identity)
	if res.Recovered {
		log.Debug("memory document reinitialized", "cause", res.Cause)
	}
	return res.State
}

func (s *Service) complete(ctx context.Context, req llm.Request) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.completer.Complete(ctx, req)
}

func (s *Service) runLogger(op, identity string) *slog.Logger {
	return s.logger.With("op", op, "identity", identity, "run", uuid.NewString())
}

func finish(span trace.Span, report *reconcile.Report, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if report != nil {
		totals := report.Totals()
		span.SetAttributes(
			attribute.Int("memtier.added", totals.Added),
			attribute.Int("memtier.updated", totals.Updated),
			attribute.Int("memtier.deleted", totals.Deleted),
		)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
