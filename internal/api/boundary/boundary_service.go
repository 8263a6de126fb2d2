package boundary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

var ErrIndexUnavailable = errors.New("boundary index unavailable")

var _ Service = (*ServiceImpl)(nil)

// Service answers point-in-district queries. The dataset is fetched lazily
// and shared by every caller in the process.
type Service interface {
	EnsureLoaded(ctx context.Context) error
	FindDistrict(ctx context.Context, lat, lon float64) *types.District
	Districts(ctx context.Context) []types.District
}

type ServiceImpl struct {
	logger     *slog.Logger
	source     Source
	timeout    time.Duration
	retryAfter time.Duration
	now        func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	index       *Index
	initialized bool
	lastFailure time.Time
}

type Option func(*ServiceImpl)

// WithTimeout bounds a single dataset load. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(s *ServiceImpl) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetryAfter sets how long a failed load is remembered before the next
// query tries again.
func WithRetryAfter(d time.Duration) Option {
	return func(s *ServiceImpl) { s.retryAfter = d }
}

func NewServiceImpl(source Source, logger *slog.Logger, opts ...Option) *ServiceImpl {
	s := &ServiceImpl{
		logger:     logger,
		source:     source,
		timeout:    30 * time.Second,
		retryAfter: time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureLoaded loads the dataset at most once. Concurrent first callers share
// the same fetch; a failure is returned to all of them and leaves the service
// unloaded so a later call can retry.
func (s *ServiceImpl) EnsureLoaded(ctx context.Context) error {
	s.mu.RLock()
	initialized, lastFailure := s.initialized, s.lastFailure
	s.mu.RUnlock()
	if initialized {
		return nil
	}
	if !lastFailure.IsZero() && s.now().Sub(lastFailure) < s.retryAfter {
		return ErrIndexUnavailable
	}

	_, err, _ := s.group.Do("boundaries", func() (interface{}, error) {
		// one caller's cancellation must not fail the load for the others
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return nil, s.load(loadCtx)
	})
	return err
}

func (s *ServiceImpl) load(ctx context.Context) error {
	ctx, span := otel.Tracer("BoundaryService").Start(ctx, "LoadDataset")
	defer span.End()

	s.mu.RLock()
	done := s.initialized
	s.mu.RUnlock()
	if done {
		return nil
	}

	start := time.Now()
	data, err := s.source.Fetch(ctx)
	if err == nil {
		var (
			districts []types.District
			rejected  []types.RecordError
		)
		districts, rejected, err = ParseDistricts(data)
		if err == nil {
			s.logRejected(ctx, rejected)
			if len(districts) == 0 {
				err = fmt.Errorf("boundary dataset contains no usable district")
			} else {
				s.mu.Lock()
				s.index = NewIndex(districts, s.logger)
				s.initialized = true
				s.lastFailure = time.Time{}
				s.mu.Unlock()

				span.SetAttributes(attribute.Int("districts", len(districts)))
				span.SetStatus(codes.Ok, "Boundary dataset loaded")
				s.logger.InfoContext(ctx, "Boundary dataset loaded",
					slog.Int("districts", len(districts)),
					slog.Int("rejected", len(rejected)),
					slog.Duration("elapsed", time.Since(start)))
				return nil
			}
		}
	}

	s.mu.Lock()
	s.lastFailure = s.now()
	s.mu.Unlock()

	metrics.Get().BoundaryLoadFailuresTotal.Add(ctx, 1)
	span.RecordError(err)
	span.SetStatus(codes.Error, "Boundary dataset load failed")
	s.logger.WarnContext(ctx, "Boundary dataset unavailable, district lookups disabled", slog.Any("error", err))
	return fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
}

func (s *ServiceImpl) logRejected(ctx context.Context, rejected []types.RecordError) {
	if len(rejected) == 0 {
		return
	}
	metrics.Get().DatasetRecordsSkippedTotal.Add(ctx, int64(len(rejected)))
	for _, rec := range rejected {
		s.logger.WarnContext(ctx, "Skipping invalid boundary feature",
			slog.Int("index", rec.Index),
			slog.String("code", rec.ID),
			slog.String("reason", rec.Reason))
	}
}

// FindDistrict returns nil when the point is outside every district or the
// dataset could not be loaded.
func (s *ServiceImpl) FindDistrict(ctx context.Context, lat, lon float64) *types.District {
	if !types.ValidCoordinates(lat, lon) {
		return nil
	}
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil
	}
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	return idx.Find(lat, lon)
}

func (s *ServiceImpl) Districts(ctx context.Context) []types.District {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil
	}
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	return idx.Districts()
}
