package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/fileutil"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

type versionsOptions struct {
	versionRange string
	snapshots    bool
	output       string
}

func newVersionsCmd(global *globalOptions) *cobra.Command {
	opts := &versionsOptions{}
	cmd := &cobra.Command{
		Use:   "versions GROUP:ARTIFACT[:RANGE]",
		Short: "List the published versions of a package, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(cmd.Context(), global, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.versionRange, "range", "", "only list versions in this range")
	flags.BoolVar(&opts.snapshots, "snapshots", false, "include SNAPSHOT versions")
	flags.StringVarP(&opts.output, "output", "o", "", "write the versions as JSON to this file")
	return cmd
}

func runVersions(ctx context.Context, global *globalOptions, opts *versionsOptions, arg string) error {
	coord, err := parseRoot(arg, opts.versionRange)
	if err != nil {
		return err
	}
	client, err := global.client()
	if err != nil {
		return err
	}
	defer client.Close()

	versions, err := client.ListVersions(ctx, coord)
	if err != nil {
		return xerrors.Errorf("version lookup error: %w", err)
	}
	if !opts.snapshots {
		versions = lo.Reject(versions, func(v string, _ int) bool { return version.IsSnapshot(v) })
	}
	slices.SortStableFunc(versions, version.NewComparator().Compare)

	if opts.output != "" {
		return fileutil.WriteJSON(opts.output, versions)
	}
	for _, v := range versions {
		fmt.Println(v)
	}
	return nil
}
