package service

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/domain"
	"github.com/dukerupert/usps/internal/events"
	"github.com/dukerupert/usps/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxBatchSize caps VerifyMany.
	MaxBatchSize = 50

	// batchConcurrency bounds in-flight USPS calls per batch.
	batchConcurrency = 5

	// DefaultRecentLimit applies when Recent is called with limit 0.
	DefaultRecentLimit = 20
)

// VerificationService verifies addresses and keeps an audit trail.
type VerificationService interface {
	// Verify builds an address from fields, standardizes it and evaluates the
	// USPS metadata. The returned record is also stored and published.
	Verify(ctx context.Context, fields map[string]any) (*domain.Verification, error)

	// Standardize returns the standardized version of the address described
	// by fields without evaluating or recording it.
	Standardize(ctx context.Context, fields map[string]any) (*address.Address, error)

	// VerifyMany verifies each entry independently. A failure of one entry is
	// reported in its item and does not affect the others.
	VerifyMany(ctx context.Context, batch []map[string]any) ([]BatchItem, error)

	// Get returns a stored verification.
	Get(ctx context.Context, id uuid.UUID) (*domain.Verification, error)

	// Recent returns the latest stored verifications, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Verification, error)
}

// BatchItem is the outcome of one VerifyMany entry. Exactly one of
// Verification and Err is set.
type BatchItem struct {
	Index        int
	Verification *domain.Verification
	Err          error
}

type verificationService struct {
	resolver  address.Resolver
	store     domain.VerificationStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the verification service.
type Option func(*verificationService)

// WithStore records every verification in store.
func WithStore(store domain.VerificationStore) Option {
	return func(s *verificationService) {
		s.store = store
	}
}

// WithPublisher publishes an event after every verification.
func WithPublisher(p events.Publisher) Option {
	return func(s *verificationService) {
		s.publisher = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *verificationService) {
		s.logger = logger
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *verificationService) {
		s.now = now
	}
}

// NewVerificationService creates a verification service that resolves
// addresses with r.
func NewVerificationService(r address.Resolver, opts ...Option) VerificationService {
	s := &verificationService{
		resolver:  r,
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *verificationService) Verify(ctx context.Context, fields map[string]any) (*domain.Verification, error) {
	const op = "address.verify"

	a, err := s.build(op, fields)
	if err != nil {
		return nil, err
	}

	rec := &domain.Verification{
		ID:        uuid.New(),
		Input:     a.Clone(),
		CreatedAt: s.now().UTC(),
	}

	verdict, err := a.Verify(ctx, s.resolver)
	if err != nil {
		rec.Error = err.Error()
		telemetry.RecordVerification("error")
		s.record(ctx, rec)
		return nil, s.resolveError(op, err)
	}

	rec.Standardized = a
	rec.Verdict = verdict
	telemetry.RecordVerification(outcome(verdict))

	s.logger.Debug("address verified",
		"id", rec.ID,
		"verdict", verdict.String(),
		"zip", a.Zip(),
	)

	s.record(ctx, rec)
	return rec, nil
}

func (s *verificationService) Standardize(ctx context.Context, fields map[string]any) (*address.Address, error) {
	const op = "address.standardize"

	a, err := s.build(op, fields)
	if err != nil {
		return nil, err
	}

	std, err := a.Standardize(ctx, s.resolver)
	if err != nil {
		telemetry.RecordStandardization("error")
		return nil, s.resolveError(op, err)
	}

	telemetry.RecordStandardization("ok")
	return std, nil
}

func (s *verificationService) VerifyMany(ctx context.Context, batch []map[string]any) ([]BatchItem, error) {
	const op = "address.verify_batch"

	if len(batch) == 0 {
		return nil, domain.Invalid(op, "at least one address is required")
	}
	if len(batch) > MaxBatchSize {
		return nil, domain.Errorf(domain.EINVALID, op, "at most %d addresses can be verified at once", MaxBatchSize)
	}

	items := make([]BatchItem, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, fields := range batch {
		g.Go(func() error {
			rec, err := s.Verify(gctx, fields)
			items[i] = BatchItem{Index: i, Verification: rec, Err: err}
			return nil
		})
	}
	// Item failures are carried in items; Go never returns an error.
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *verificationService) Get(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	if s.store == nil {
		return nil, domain.Errorf(domain.ENOTIMPL, "verification.get", "verification history is not configured")
	}
	return s.store.Get(ctx, id)
}

func (s *verificationService) Recent(ctx context.Context, limit int) ([]*domain.Verification, error) {
	if s.store == nil {
		return nil, domain.Errorf(domain.ENOTIMPL, "verification.list", "verification history is not configured")
	}
	if limit == 0 {
		limit = DefaultRecentLimit
	}
	return s.store.ListRecent(ctx, limit)
}

// build constructs the address and rejects obviously incomplete input before
// it reaches the USPS.
func (s *verificationService) build(op string, fields map[string]any) (*address.Address, error) {
	a, err := address.New(fields)
	if err != nil {
		return nil, err
	}

	if err := address.CheckFormat(a); err != nil {
		var fe *address.FormatError
		if errors.As(err, &fe) {
			var verr error
			for _, field := range slices.Sorted(maps.Keys(fe.Fields)) {
				if verr == nil {
					verr = domain.NewValidationError(op, field, fe.Fields[field])
					continue
				}
				verr = domain.AddFieldError(verr, field, fe.Fields[field])
			}
			if verr != nil {
				return nil, verr
			}
		}
		return nil, domain.Internal(err, op, "failed to check address format")
	}

	return a, nil
}

// record stores and publishes rec. Failures are logged and reported but never
// fail the verification itself.
func (s *verificationService) record(ctx context.Context, rec *domain.Verification) {
	if s.store != nil {
		if err := s.store.Create(ctx, rec); err != nil {
			s.logger.Error("failed to record verification", "id", rec.ID, "error", err)
			telemetry.CaptureError(ctx, err, map[string]any{"verification_id": rec.ID.String()})
		}
	}

	if rec.Error != "" {
		return
	}
	if err := s.publisher.Publish(ctx, domain.NewVerificationEvent(rec)); err != nil {
		s.logger.Warn("failed to publish verification event", "id", rec.ID, "error", err)
	}
}

// resolveError passes coded errors through and marks anything else as an
// upstream failure.
func (s *verificationService) resolveError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Unavailable(err, op, "address service request was canceled or timed out")
	}

	var c domain.Coder
	if errors.As(err, &c) {
		if domain.IsCode(err, domain.EUNAVAILABLE) {
			s.logger.Warn("address service failed", "op", op, "error", err)
		}
		return err
	}

	s.logger.Error("address resolver failed", "op", op, "error", err)
	return domain.Unavailable(err, op, "address service unavailable")
}

func outcome(v address.Verdict) string {
	switch {
	case !v.Known():
		return "unknown"
	case v.IsValid():
		return "valid"
	default:
		return "invalid"
	}
}
