package dependency

import (
	"log/slog"

	"github.com/aquasecurity/trivy-java-resolver/pkg/progress"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

// FetchRequest is one artifact to fetch together with its progress leaf.
type FetchRequest struct {
	Coordinate types.Coordinate
	Monitor    *progress.Monitor
}

// Deduplicate walks the tree depth-first and returns one request per identity key
// (group, artifact, extension, classifier). When the same key appears with several
// versions the highest one wins and keeps the position of the first occurrence.
// Progress leaves are created under parent; a replaced request hands its leaf over.
func Deduplicate(root *types.DependencyNode, comparator version.Comparator, parent *progress.Monitor) []FetchRequest {
	d := deduplicator{
		comparator: comparator,
		parent:     parent,
		index:      make(map[types.Key]int),
	}
	Walk(root, d.visit)
	return d.requests
}

type deduplicator struct {
	comparator version.Comparator
	parent     *progress.Monitor
	requests   []FetchRequest
	index      map[types.Key]int
}

func (d *deduplicator) visit(node *types.DependencyNode) {
	coord := node.Coordinate
	key := coord.Key()

	i, ok := d.index[key]
	if !ok {
		d.index[key] = len(d.requests)
		d.requests = append(d.requests, FetchRequest{
			Coordinate: coord,
			Monitor:    d.parent.CreateChild(),
		})
		return
	}

	existing := d.requests[i].Coordinate
	if d.comparator.Less(existing.Version, coord.Version) {
		slog.Debug("Newer version supersedes", slog.String("artifact", key.String()),
			slog.String("old", existing.Version), slog.String("new", coord.Version))
		d.requests[i].Coordinate = coord
	}
}

// Walk calls fn for every node of the tree in depth-first pre-order.
// An explicit stack keeps deep trees off the goroutine stack.
func Walk(root *types.DependencyNode, fn func(*types.DependencyNode)) {
	if root == nil {
		return
	}
	stack := []*types.DependencyNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(node)
		// push in reverse so the first child is visited first
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}
