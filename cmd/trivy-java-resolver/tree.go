package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/dependency"
	"github.com/aquasecurity/trivy-java-resolver/pkg/fileutil"
	"github.com/aquasecurity/trivy-java-resolver/pkg/progress"
	"github.com/aquasecurity/trivy-java-resolver/pkg/resolver"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

type treeOptions struct {
	versionRange string
	snapshots    bool
	scopes       []string
	output       string
}

// treeNode is the JSON form of a dependency node.
type treeNode struct {
	Coordinate string      `json:"coordinate"`
	Scope      types.Scope `json:"scope"`
	Optional   bool        `json:"optional,omitempty"`
	Children   []*treeNode `json:"children,omitempty"`
}

func newTreeCmd(global *globalOptions) *cobra.Command {
	opts := &treeOptions{}
	cmd := &cobra.Command{
		Use:   "tree GROUP:ARTIFACT[:RANGE]",
		Short: "Print the dependency tree of a package and the artifacts it resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd.Context(), global, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.versionRange, "range", "", "version range of the package (default "+resolver.DefaultVersionRange+")")
	flags.BoolVar(&opts.snapshots, "snapshots", false, "allow SNAPSHOT versions of the package")
	flags.StringSliceVar(&opts.scopes, "scope", []string{string(types.ScopeCompile), string(types.ScopeRuntime)}, "dependency scopes to include")
	flags.StringVarP(&opts.output, "output", "o", "", "write the tree as JSON to this file")
	return cmd
}

func runTree(ctx context.Context, global *globalOptions, opts *treeOptions, arg string) error {
	root, err := parseRoot(arg, opts.versionRange)
	if err != nil {
		return err
	}
	if root.Version == "" {
		root.Version = resolver.DefaultVersionRange
	}
	client, err := global.client()
	if err != nil {
		return err
	}
	defer client.Close()

	comparator := version.NewComparator()
	root = version.NewSelector(client, comparator).Select(ctx, root, opts.snapshots)

	scopes := make([]types.Scope, len(opts.scopes))
	for i, s := range opts.scopes {
		scopes[i] = types.Scope(s)
	}
	tree, err := client.ExpandDependencyGraph(ctx, root, scopes)
	if err != nil {
		return xerrors.Errorf("dependency graph error: %w", err)
	}

	if opts.output != "" {
		return fileutil.WriteJSON(opts.output, toTreeNode(tree))
	}
	printTree(os.Stdout, tree, comparator)
	return nil
}

func printTree(w io.Writer, tree *types.DependencyNode, comparator version.Comparator) {
	var walk func(n *types.DependencyNode, depth int)
	walk = func(n *types.DependencyNode, depth int) {
		line := strings.Repeat("  ", depth) + n.Coordinate.String()
		if depth > 0 {
			line += " (" + string(n.Scope) + ")"
		}
		if n.Optional {
			line += " optional"
		}
		fmt.Fprintln(w, line)
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	walk(tree, 0)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Artifacts:")
	for _, req := range dependency.Deduplicate(tree, comparator, progress.New()) {
		fmt.Fprintln(w, "  "+req.Coordinate.String())
	}
}

func toTreeNode(n *types.DependencyNode) *treeNode {
	t := &treeNode{
		Coordinate: n.Coordinate.String(),
		Scope:      n.Scope,
		Optional:   n.Optional,
	}
	for _, child := range n.Children {
		t.Children = append(t.Children, toTreeNode(child))
	}
	return t
}
