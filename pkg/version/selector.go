package version

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

// Lister lists the published versions of a coordinate that satisfy its version range.
type Lister interface {
	ListVersions(ctx context.Context, coord types.Coordinate) ([]string, error)
}

// Selector picks the newest eligible version of a coordinate.
type Selector struct {
	lister     Lister
	comparator Comparator
	logger     *slog.Logger
}

func NewSelector(lister Lister, comparator Comparator) Selector {
	return Selector{
		lister:     lister,
		comparator: comparator,
		logger:     slog.Default().With(slog.String("component", "selector")),
	}
}

// Select returns coord pinned to the newest listed version. Snapshots are ignored unless
// allowSnapshots is set. When the lookup fails or nothing is eligible, coord is returned
// unchanged and resolution continues with it.
func (s Selector) Select(ctx context.Context, coord types.Coordinate, allowSnapshots bool) types.Coordinate {
	versions, err := s.lister.ListVersions(ctx, coord)
	if err != nil {
		s.logger.Warn("Version lookup failed, using the requested coordinate",
			slog.String("coordinate", coord.String()), slog.Any("error", err))
		return coord
	}

	if !allowSnapshots {
		versions = lo.Filter(versions, func(v string, _ int) bool {
			return !IsSnapshot(v)
		})
	}
	if len(versions) == 0 {
		s.logger.Warn("No eligible version found", slog.String("coordinate", coord.String()),
			slog.Bool("allow_snapshots", allowSnapshots))
		return coord
	}

	latest := s.comparator.Max(versions)
	s.logger.Debug("Selected version", slog.String("coordinate", coord.String()), slog.String("version", latest))
	return coord.WithVersion(latest)
}
