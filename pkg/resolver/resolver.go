package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/trivy-java-resolver/pkg/dependency"
	"github.com/aquasecurity/trivy-java-resolver/pkg/fetcher"
	"github.com/aquasecurity/trivy-java-resolver/pkg/progress"
	"github.com/aquasecurity/trivy-java-resolver/pkg/tracer"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

const DefaultVersionRange = "[0,)"

// Backend is the repository collaborator.
type Backend interface {
	version.Lister
	fetcher.Fetcher
	ExpandDependencyGraph(ctx context.Context, root types.Coordinate, scopes []types.Scope) (*types.DependencyNode, error)
}

type Option struct {
	// VersionRange is the range searched for the root package. Defaults to DefaultVersionRange.
	VersionRange string
	// Extension of the root artifact. Defaults to jar.
	Extension types.ArchiveType
	// Scopes kept when expanding the graph. Defaults to compile and runtime.
	Scopes []types.Scope

	FetchTimeout time.Duration
	FetchLimit   int
	// SI renders transfer sizes in decimal units.
	SI    bool
	Clock clock.Clock
}

// Resolver turns a root package into the local files needed to run it.
type Resolver struct {
	backend    Backend
	comparator version.Comparator
	selector   version.Selector
	scheduler  *fetcher.Scheduler

	versionRange string
	extension    types.ArchiveType
	scopes       []types.Scope
	si           bool
	logger       *slog.Logger
}

func New(backend Backend, comparator version.Comparator, opt Option) *Resolver {
	if opt.VersionRange == "" {
		opt.VersionRange = DefaultVersionRange
	}
	if opt.Extension == "" {
		opt.Extension = types.JarType
	}
	if len(opt.Scopes) == 0 {
		opt.Scopes = []types.Scope{types.ScopeCompile, types.ScopeRuntime}
	}
	return &Resolver{
		backend:    backend,
		comparator: comparator,
		selector:   version.NewSelector(backend, comparator),
		scheduler: fetcher.NewScheduler(backend, fetcher.Option{
			Timeout: opt.FetchTimeout,
			Limit:   opt.FetchLimit,
			Clock:   opt.Clock,
		}),
		versionRange: opt.VersionRange,
		extension:    opt.Extension,
		scopes:       opt.Scopes,
		si:           opt.SI,
		logger:       slog.Default().With(slog.String("component", "resolver")),
	}
}

// Resolve runs SearchingVersion, ResolvingDependencies and ResolvingArtifacts in order
// and reports each state to cb. It always finishes with cb.OnFinished: the file list on
// success, nil on any failure.
func (r *Resolver) Resolve(ctx context.Context, groupID, artifactID string, allowSnapshots bool, cb Callback) ([]string, error) {
	if cb == nil {
		cb = Callbacks{}
	}
	files, err := r.resolve(ctx, groupID, artifactID, allowSnapshots, cb)
	cb.OnStateChanged(types.Done, nil, "")
	if err != nil {
		r.logger.Error("Resolution failed", slog.String("group_id", groupID), slog.String("artifact_id", artifactID),
			slog.Any("error", err))
		cb.OnFinished(nil)
		return nil, err
	}
	cb.OnFinished(files)
	return files, nil
}

func (r *Resolver) resolve(ctx context.Context, groupID, artifactID string, allowSnapshots bool, cb Callback) ([]string, error) {
	root := types.Coordinate{
		GroupID:    groupID,
		ArtifactID: artifactID,
		Extension:  r.extension,
		Version:    r.versionRange,
	}

	cb.OnStateChanged(types.SearchingVersion, nil, root.String())
	root = r.selector.Select(ctx, root, allowSnapshots)
	r.logger.Info("Resolving", slog.String("coordinate", root.String()))

	cb.OnStateChanged(types.ResolvingDependencies, nil, root.String())
	tree, err := r.backend.ExpandDependencyGraph(ctx, root, r.scopes)
	if err != nil {
		return nil, &StageError{Stage: types.ResolvingDependencies, Coordinate: root, Err: err}
	}

	monitor := progress.New()
	reqs := dependency.Deduplicate(tree, r.comparator, monitor)
	r.logger.Info("Dependencies resolved", slog.Int("artifacts", len(reqs)))

	monitors := lo.Associate(reqs, func(req dependency.FetchRequest) (types.Key, *progress.Monitor) {
		return req.Coordinate.Key(), req.Monitor
	})
	// Abandoned workers may still report after the stage ends; drop those reports
	// so no state is seen after Done.
	var (
		mu     sync.Mutex
		closed bool
	)
	tr := tracer.New(monitors, tracer.Option{
		SI: r.si,
		Status: func(s string) {
			mu.Lock()
			defer mu.Unlock()
			if !closed {
				cb.OnStateChanged(types.ResolvingArtifacts, monitor, s)
			}
		},
	})

	cb.OnStateChanged(types.ResolvingArtifacts, monitor, "")
	files, err := r.scheduler.Fetch(ctx, reqs, tr)
	mu.Lock()
	closed = true
	mu.Unlock()
	if err != nil {
		return nil, &StageError{Stage: types.ResolvingArtifacts, Coordinate: root, Err: err}
	}
	r.logger.Info("Artifacts fetched", slog.Int("files", len(files)), slog.String("size", tracer.FormatBytes(tr.TotalTransferred(), r.si)))
	return files, nil
}

// StageError records which stage of a run failed.
type StageError struct {
	Stage      types.State
	Coordinate types.Coordinate
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Stage, e.Coordinate, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
