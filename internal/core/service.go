package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"vetclinic/internal/archive"
	"vetclinic/pkg/examination"
)

// HistoryEntry describes one archived revision of an examination.
type HistoryEntry = archive.Entry

// Archiver keeps every accepted payload revision.
type Archiver interface {
	Record(ctx context.Context, exam Examination, action Action) (archive.Entry, error)
	History(ctx context.Context, id string) ([]archive.Entry, error)
}

// MetricsRecorder receives service operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	RecordViolation(ctx context.Context, violation Violation)
}

// Service exposes transactional examination operations on a PersistentStore.
type Service struct {
	store   PersistentStore
	archive Archiver
	logger  *zap.Logger
	metrics MetricsRecorder
	nowFn   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArchive stores every committed revision in a.
func WithArchive(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

// WithMetrics reports operation outcomes to m.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the clock used for operation timings.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: zap.NewNop(),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("service")
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Create stores a new examination from a submission payload.
func (s *Service) Create(ctx context.Context, payload examination.Payload) (Examination, Result, error) {
	started := s.nowFn()
	var created Examination
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateExamination(Examination{Payload: normalizePayload(payload)})
		return err
	})
	s.finish(ctx, "create", started, created.ID, res, err)
	if err != nil {
		return Examination{}, res, err
	}
	s.archiveRevision(ctx, created, ActionCreate)
	return created, res, nil
}

// Update replaces the payload of an existing examination.
func (s *Service) Update(ctx context.Context, id string, payload examination.Payload) (Examination, Result, error) {
	started := s.nowFn()
	var updated Examination
	res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateExamination(id, func(e *Examination) error {
			e.Payload = normalizePayload(payload)
			return nil
		})
		return err
	})
	s.finish(ctx, "update", started, id, res, err)
	if err != nil {
		return Examination{}, res, err
	}
	s.archiveRevision(ctx, updated, ActionUpdate)
	return updated, res, nil
}

// Get returns the examination with id or ErrNotFound.
func (s *Service) Get(_ context.Context, id string) (Examination, error) {
	exam, ok := s.store.GetExamination(id)
	if !ok {
		return Examination{}, ErrNotFound{Entity: EntityExamination, ID: id}
	}
	return exam, nil
}

// List returns every stored examination ordered by creation time.
func (s *Service) List(ctx context.Context) ([]Examination, error) {
	var out []Examination
	err := s.store.View(ctx, func(view TransactionView) error {
		out = view.ListExaminations()
		return nil
	})
	return out, err
}

// History lists the archived revisions of id. Without an archive the history is empty.
func (s *Service) History(ctx context.Context, id string) ([]HistoryEntry, error) {
	if _, ok := s.store.GetExamination(id); !ok {
		return nil, ErrNotFound{Entity: EntityExamination, ID: id}
	}
	if s.archive == nil {
		return []HistoryEntry{}, nil
	}
	return s.archive.History(ctx, id)
}

func normalizePayload(p examination.Payload) examination.Payload {
	if p == nil {
		return examination.Payload{}
	}
	return p.Clone()
}

func (s *Service) archiveRevision(ctx context.Context, exam Examination, action Action) {
	if s.archive == nil {
		return
	}
	entry, err := s.archive.Record(ctx, exam, action)
	if err != nil {
		// The write is already committed.
		s.logger.Error("archive revision failed",
			zap.String("id", exam.ID),
			zap.Int("revision", exam.Revision),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("archived revision", zap.String("id", exam.ID), zap.String("key", entry.Key))
}

func (s *Service) finish(ctx context.Context, op string, started time.Time, id string, res Result, err error) {
	elapsed := s.nowFn().Sub(started)
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, elapsed)
		for _, v := range res.Violations {
			s.metrics.RecordViolation(ctx, v)
		}
	}
	fields := []zap.Field{zap.String("operation", op), zap.String("id", id), zap.Duration("elapsed", elapsed)}
	var blocked RuleViolationError
	switch {
	case errors.As(err, &blocked):
		s.logger.Warn("examination rejected by rules", append(fields, zap.Int("violations", len(blocked.Result.Violations)))...)
	case err != nil:
		s.logger.Error("examination write failed", append(fields, zap.Error(err))...)
	default:
		for _, v := range res.Violations {
			s.logger.Warn("rule warning", append(fields, zap.String("rule", v.Rule), zap.String("message", v.Message))...)
		}
		s.logger.Info("examination stored", fields...)
	}
}
