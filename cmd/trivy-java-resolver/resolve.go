package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/aquasecurity/trivy-java-resolver/pkg/fetcher"
	"github.com/aquasecurity/trivy-java-resolver/pkg/fileutil"
	"github.com/aquasecurity/trivy-java-resolver/pkg/progress"
	"github.com/aquasecurity/trivy-java-resolver/pkg/resolver"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

const barTemplate pb.ProgressBarTemplate = `{{string . "state"}} {{bar . }} {{percent . }} {{string . "status"}}`

// barScale maps monitor progress in [0,1] onto bar units.
const barScale = 1000

type resolveOptions struct {
	versionRange string
	snapshots    bool
	timeout      time.Duration
	limit        int
	si           bool
	output       string
	noProgress   bool
}

type resolveResult struct {
	GroupID    string   `json:"groupId"`
	ArtifactID string   `json:"artifactId"`
	Files      []string `json:"files"`
}

func newResolveCmd(global *globalOptions) *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve GROUP:ARTIFACT[:RANGE]",
		Short: "Fetch the newest matching version of a package and its runtime dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), global, opts, args[0])
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.versionRange, "range", "", "version range of the package (default "+resolver.DefaultVersionRange+")")
	flags.BoolVar(&opts.snapshots, "snapshots", false, "allow SNAPSHOT versions of the package")
	flags.DurationVar(&opts.timeout, "timeout", fetcher.DefaultTimeout, "ceiling for fetching all artifacts")
	flags.IntVar(&opts.limit, "limit", 0, "maximum concurrent downloads, 0 means no limit")
	flags.BoolVar(&opts.si, "si", false, "print sizes in powers of 1000")
	flags.StringVarP(&opts.output, "output", "o", "", "write the result as JSON to this file")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "don't show the progress bar")
	return cmd
}

func runResolve(ctx context.Context, global *globalOptions, opts *resolveOptions, arg string) error {
	root, err := parseRoot(arg, opts.versionRange)
	if err != nil {
		return err
	}
	client, err := global.client()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	r := resolver.New(client, version.NewComparator(), resolver.Option{
		VersionRange: root.Version,
		Extension:    root.Extension,
		FetchTimeout: opts.timeout,
		FetchLimit:   opts.limit,
		SI:           opts.si,
	})

	var cb resolver.Callback
	if !opts.noProgress {
		cb = newProgressBar()
	}
	files, err := r.Resolve(ctx, root.GroupID, root.ArtifactID, opts.snapshots, cb)
	if err != nil {
		return err
	}

	if opts.output != "" {
		return fileutil.WriteJSON(opts.output, resolveResult{
			GroupID:    root.GroupID,
			ArtifactID: root.ArtifactID,
			Files:      files,
		})
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}

// progressBar renders resolution states on stderr.
type progressBar struct {
	bar *pb.ProgressBar
}

func newProgressBar() *progressBar {
	bar := barTemplate.New(barScale)
	bar.SetWriter(os.Stderr)
	return &progressBar{bar: bar}
}

func (p *progressBar) OnStateChanged(state types.State, monitor *progress.Monitor, status string) {
	switch state {
	case types.SearchingVersion, types.ResolvingDependencies:
		fmt.Fprintf(os.Stderr, "%s %s\n", state, status)
	case types.ResolvingArtifacts:
		if !p.bar.IsStarted() {
			p.bar.Set("state", state.String())
			p.bar.Start()
		}
		if monitor != nil {
			p.bar.SetCurrent(int64(monitor.Progress() * barScale))
		}
		p.bar.Set("status", status)
	case types.Done:
		if p.bar.IsStarted() {
			p.bar.Finish()
		}
	}
}

func (p *progressBar) OnFinished(files []string) {
	if files == nil {
		fmt.Fprintln(os.Stderr, "Resolution failed")
		return
	}
	fmt.Fprintf(os.Stderr, "%d files\n", len(files))
}
