package maven

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

// ExpandDependencyGraph builds the dependency tree of root from POMs. Only nodes whose
// scope is in scopes are kept. Optional dependencies are followed for root only, test and
// provided dependencies are never transitive, exclusions apply to the whole subtree and
// cycles (the same coordinate and version) are cut on the current path.
func (c *Client) ExpandDependencyGraph(ctx context.Context, root types.Coordinate, scopes []types.Scope) (*types.DependencyNode, error) {
	proj, err := c.loadProject(ctx, root, 0)
	if err != nil {
		return nil, xerrors.Errorf("root pom error: %w", err)
	}

	e := &expander{
		client:   c,
		root:     proj,
		scopes:   scopes,
		path:     make(map[types.Coordinate]struct{}),
		expanded: make(map[string]struct{}),
		ranges:   make(map[string]string),
	}
	node := &types.DependencyNode{
		Coordinate: root,
		Scope:      types.ScopeCompile,
	}
	e.path[root] = struct{}{}
	if err = e.expand(ctx, node, proj, nil, true); err != nil {
		return nil, err
	}
	return node, nil
}

type expander struct {
	client *Client
	root   *project
	scopes []types.Scope

	path     map[types.Coordinate]struct{} // coordinates on the current path
	expanded map[string]struct{}           // subtrees already expanded elsewhere
	ranges   map[string]string             // resolved version ranges
}

func (e *expander) expand(ctx context.Context, node *types.DependencyNode, proj *project, exclusions []pomExclusion, isRoot bool) error {
	for _, d := range proj.dependencies {
		if excluded(exclusions, d) {
			continue
		}
		if !isRoot && d.Optional == "true" {
			continue
		}

		d = e.managed(d, proj)
		scope, ok := transitiveScope(node.Scope, types.Scope(lo.Ternary(d.Scope == "", "compile", d.Scope)), isRoot)
		if !ok || !lo.Contains(e.scopes, scope) {
			continue
		}

		coord, err := e.coordinate(ctx, d)
		if err != nil {
			return xerrors.Errorf("dependency of %s: %w", node.Coordinate, err)
		}
		// another version of an ancestor is a regular dependency, not a cycle
		if _, cycle := e.path[coord]; cycle {
			slog.Debug("Dependency cycle", slog.String("artifact", coord.String()))
			continue
		}

		child := &types.DependencyNode{
			Coordinate: coord,
			Scope:      scope,
			Optional:   d.Optional == "true",
		}
		node.Children = append(node.Children, child)

		childExclusions := append(slices.Clone(exclusions), d.Exclusions...)
		sig := signature(coord, scope, childExclusions)
		if _, done := e.expanded[sig]; done {
			// identical subtree is already part of the tree
			continue
		}
		e.expanded[sig] = struct{}{}

		childProj, err := e.client.loadProject(ctx, coord, 0)
		if err != nil {
			return xerrors.Errorf("dependency of %s: %w", node.Coordinate, err)
		}

		e.path[coord] = struct{}{}
		err = e.expand(ctx, child, childProj, childExclusions, false)
		delete(e.path, coord)
		if err != nil {
			return err
		}
	}
	return nil
}

// managed fills version and scope from dependencyManagement. The root's entries override
// those of intermediate projects.
func (e *expander) managed(d pomDependency, proj *project) pomDependency {
	key := d.managedKey()
	m, ok := e.root.managed[key]
	if ok && m.Version != "" {
		d.Version = m.Version
	} else if d.Version == "" {
		m, ok = proj.managed[key]
		d.Version = m.Version
	}
	if ok && d.Scope == "" {
		d.Scope = m.Scope
	}
	if ok && len(m.Exclusions) > 0 {
		d.Exclusions = append(slices.Clone(d.Exclusions), m.Exclusions...)
	}
	return d
}

func (e *expander) coordinate(ctx context.Context, d pomDependency) (types.Coordinate, error) {
	ext, classifier := artifactType(d.Type, d.Classifier)
	coord := types.Coordinate{
		GroupID:    d.GroupID,
		ArtifactID: d.ArtifactID,
		Extension:  ext,
		Classifier: classifier,
		Version:    d.Version,
	}
	if coord.Version == "" {
		return types.Coordinate{}, xerrors.Errorf("%s: no version", coord)
	}
	if !version.IsRange(coord.Version) {
		return coord, nil
	}

	if v, ok := e.ranges[coord.String()]; ok {
		return coord.WithVersion(v), nil
	}
	versions, err := e.client.ListVersions(ctx, coord)
	if err != nil {
		return types.Coordinate{}, xerrors.Errorf("%s: %w", coord, err)
	}
	releases := lo.Reject(versions, func(v string, _ int) bool { return version.IsSnapshot(v) })
	v := e.client.comparator.Max(lo.Ternary(len(releases) > 0, releases, versions))
	if v == "" {
		return types.Coordinate{}, xerrors.Errorf("%s: no version matches the range", coord)
	}
	e.ranges[coord.String()] = v
	return coord.WithVersion(v), nil
}

// transitiveScope returns the scope a dependency gets under a parent node, and false when
// the dependency does not propagate.
func transitiveScope(parent, dep types.Scope, isRoot bool) (types.Scope, bool) {
	if isRoot {
		return dep, true
	}
	switch dep {
	case types.ScopeCompile:
		return parent, true
	case types.ScopeRuntime:
		if parent == types.ScopeCompile {
			return types.ScopeRuntime, true
		}
		return parent, true
	}
	return "", false
}

// artifactType maps a POM dependency type to an extension and classifier.
func artifactType(typ, classifier string) (types.ArchiveType, string) {
	switch typ {
	case "", "jar", "bundle", "ejb", "maven-plugin":
		return types.JarType, classifier
	case "test-jar":
		return types.JarType, lo.Ternary(classifier == "", "tests", classifier)
	}
	return types.ArchiveType(typ), classifier
}

func excluded(exclusions []pomExclusion, d pomDependency) bool {
	return lo.ContainsBy(exclusions, func(ex pomExclusion) bool {
		return (ex.GroupID == "*" || ex.GroupID == d.GroupID) && (ex.ArtifactID == "*" || ex.ArtifactID == d.ArtifactID)
	})
}

func signature(coord types.Coordinate, scope types.Scope, exclusions []pomExclusion) string {
	ss := lo.Map(exclusions, func(ex pomExclusion, _ int) string {
		return ex.GroupID + ":" + ex.ArtifactID
	})
	slices.Sort(ss)
	return coord.String() + "|" + string(scope) + "|" + strings.Join(lo.Uniq(ss), ",")
}
