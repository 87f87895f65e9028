package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/trivy-java-resolver/pkg/dependency"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

// DefaultTimeout bounds the whole fetch stage.
const DefaultTimeout = time.Hour

var ErrTimeout = xerrors.New("fetch stage timed out")

// Fetcher stores one artifact locally and returns its path.
type Fetcher interface {
	FetchArtifact(ctx context.Context, coord types.Coordinate, listener types.TransferListener) (string, error)
}

type Option struct {
	// Timeout is the ceiling for the whole stage. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Limit bounds the number of concurrent fetches. Zero means one worker per request.
	Limit int
	Clock clock.Clock
}

// Scheduler fetches all requests concurrently and joins them under a single deadline.
type Scheduler struct {
	fetcher Fetcher
	timeout time.Duration
	limit   int
	clock   clock.Clock
	logger  *slog.Logger
}

func NewScheduler(fetcher Fetcher, opt Option) *Scheduler {
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	if opt.Clock == nil {
		opt.Clock = clock.RealClock{}
	}
	return &Scheduler{
		fetcher: fetcher,
		timeout: opt.Timeout,
		limit:   opt.Limit,
		clock:   opt.Clock,
		logger:  slog.Default().With(slog.String("component", "scheduler")),
	}
}

// Fetch returns local paths in the order of reqs. Any failed fetch fails the whole
// stage; a partial result is never returned.
func (s *Scheduler) Fetch(ctx context.Context, reqs []dependency.FetchRequest, listener types.TransferListener) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	paths := make([]string, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	limit := int64(len(reqs))
	if s.limit > 0 {
		limit = int64(s.limit)
	}
	sem := semaphore.NewWeighted(limit)

	done := make(chan error, 1)
	timeout := s.clock.After(s.timeout)

	go func() {
		for i, req := range reqs {
			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return xerrors.Errorf("semaphore acquire error: %w", err)
				}
				defer sem.Release(1)

				path, err := s.fetcher.FetchArtifact(gctx, req.Coordinate, listener)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						s.logger.Error("Artifact fetch failed", slog.String("coordinate", req.Coordinate.String()),
							slog.Any("error", err))
					}
					return xerrors.Errorf("unable to fetch %s: %w", req.Coordinate, err)
				}
				if req.Monitor != nil {
					req.Monitor.SetProgress(1)
				}
				paths[i] = path
				return nil
			})
		}
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return paths, nil
	case <-timeout:
		s.logger.Error("Fetch stage timed out", slog.Duration("timeout", s.timeout), slog.Int("requests", len(reqs)))
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, xerrors.Errorf("fetch stage aborted: %w", ctx.Err())
	}
}
