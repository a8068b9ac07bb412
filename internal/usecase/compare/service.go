package compare

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/autorovers/autorovers/internal/domain"
	"github.com/autorovers/autorovers/internal/domain/comparison"
	"github.com/autorovers/autorovers/internal/domain/comparison/row"
	"github.com/autorovers/autorovers/internal/domain/vehicle"
	"github.com/autorovers/autorovers/internal/metrics"
)

const tracerName = "github.com/autorovers/autorovers/internal/usecase/compare"

// Service runs comparisons over a session's selection.
type Service struct {
	selection    Selection
	fetcher      Fetcher
	classifier   Classifier
	normalizer   *comparison.Normalizer
	logger       *zap.Logger
	tracer       trace.Tracer
	fetchTimeout time.Duration
	publisher    Publisher
}

// New creates a comparison service.
func New(
	selection Selection, fetcher Fetcher, classifier Classifier,
	policy comparison.Policy, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		selection:  selection,
		fetcher:    fetcher,
		classifier: classifier,
		normalizer: comparison.NewNormalizer(policy),
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// WithFetchTimeout bounds each catalog fetch. Zero means no bound beyond ctx.
func (s *Service) WithFetchTimeout(d time.Duration) *Service {
	s.fetchTimeout = d
	return s
}

// WithPublisher announces every finished comparison through p.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

type fetched struct {
	ref     vehicle.Reference
	details vehicle.Details
	err     error
}

// Compare fetches every selected vehicle, normalizes the batch under one
// product line and renders the row catalog. Vehicles that cannot be compared
// are dropped and removed from the stored selection, except for transient
// fetch failures such as a local rate limit. A context that ends before the
// batch settles returns its error and leaves the selection untouched.
func (s *Service) Compare(ctx context.Context, owner string) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "compare.Compare", trace.WithAttributes(attribute.String("owner", owner)))
	defer span.End()

	start := time.Now()
	defer func() { metrics.CompareDuration.Observe(time.Since(start).Seconds()) }()

	state := s.selection.Load(ctx, owner)
	refs := make([]vehicle.Reference, 0, state.Len())
	for _, it := range state.Items() {
		if it.HasSlug() {
			refs = append(refs, it)
		}
	}
	span.SetAttributes(attribute.Int("selection.size", len(refs)))
	if len(refs) < MinVehicles {
		metrics.CompareRunsTotal.WithLabelValues("insufficient").Inc()
		return Result{Insufficient: true, Dropped: []Drop{}}, nil
	}
	if err := ctx.Err(); err != nil {
		metrics.CompareRunsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return Result{}, fmt.Errorf("compare: %w", err)
	}

	batch := s.fetchAll(ctx, refs)
	if err := ctx.Err(); err != nil {
		metrics.CompareRunsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return Result{}, fmt.Errorf("compare: %w", err)
	}
	res := s.assemble(batch)
	for _, d := range res.Dropped {
		metrics.CompareDropsTotal.WithLabelValues(string(d.Cause)).Inc()
		s.logger.Info("Dropped vehicle from comparison",
			zap.String("owner", owner),
			zap.Int64("vehicle_id", d.ID),
			zap.String("slug", d.Slug),
			zap.String("cause", string(d.Cause)),
			zap.String("reason", d.Reason),
			zap.Bool("transient", d.Transient),
		)
	}

	if removed := res.RemovedIDs(); len(removed) > 0 {
		refreshed := make([]vehicle.Reference, 0, len(res.Vehicles))
		for _, b := range batch {
			if b.err == nil {
				refreshed = append(refreshed, b.details.Reference())
			}
		}
		if _, err := s.selection.Reconcile(ctx, owner, removed, refreshed, res.Line); err != nil {
			s.logger.Error("Failed to reconcile selection", zap.String("owner", owner), zap.Error(err))
		}
	}

	outcome := "ok"
	if res.Insufficient {
		outcome = "insufficient"
	}
	metrics.CompareRunsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(
		attribute.String("vehicle_type", res.Line.String()),
		attribute.Int("compared", len(res.Vehicles)),
		attribute.Int("dropped", len(res.Dropped)),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishComparison(ctx, owner, res); err != nil {
			s.logger.Warn("Failed to publish comparison", zap.String("owner", owner), zap.Error(err))
		}
	}
	return res, nil
}

// fetchAll fetches every reference concurrently. Every fetch settles; failures
// are kept per slot instead of cancelling the group.
func (s *Service) fetchAll(ctx context.Context, refs []vehicle.Reference) []fetched {
	out := make([]fetched, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			fctx := ctx
			if s.fetchTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
				defer cancel()
			}
			d, err := s.fetcher.Get(fctx, ref.Slug)
			out[i] = fetched{ref: ref, details: d, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// assemble classifies and normalizes fetched records in selection order.
// The first vehicle that normalizes fixes the line.
func (s *Service) assemble(batch []fetched) Result {
	res := Result{Dropped: []Drop{}}
	for _, b := range batch {
		if b.err != nil {
			res.Dropped = append(res.Dropped, Drop{
				ID: b.ref.ID, Slug: b.ref.Slug, Cause: CauseFetch, Reason: b.err.Error(),
				Transient: errors.Is(b.err, domain.ErrRateLimited),
			})
			continue
		}
		line, _ := s.classifier.ClassifyDetail(b.details.Hints())
		if res.Line.IsValid() && line.IsValid() && line != res.Line {
			res.Dropped = append(res.Dropped, Drop{
				ID: b.ref.ID, Slug: b.ref.Slug, Cause: CauseTypeMismatch,
				Reason: fmt.Sprintf("%s in a %s comparison", line, res.Line),
			})
			continue
		}
		n := s.normalizer.Normalize(b.details, line)
		if !n.OK() {
			res.Dropped = append(res.Dropped, Drop{ID: b.ref.ID, Slug: b.ref.Slug, Cause: CauseNormalize, Reason: n.Reason})
			continue
		}
		if !res.Line.IsValid() {
			res.Line = line
		}
		res.Vehicles = append(res.Vehicles, n.Vehicle)
	}

	if len(res.Vehicles) < MinVehicles {
		res.Insufficient = true
		return res
	}
	res.Table = row.Render(res.Line, res.Vehicles)
	return res
}
