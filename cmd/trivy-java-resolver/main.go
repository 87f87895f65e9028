package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/maven"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

type globalOptions struct {
	repositories  []string
	cacheDir      string
	retry         int
	skipChecksums bool
	logLevel      string
	logFormat     string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "trivy-java-resolver",
		Short:         "Resolve a Maven package and its dependencies into local files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	flags := cmd.PersistentFlags()
	flags.StringSliceVarP(&opts.repositories, "repository", "r", nil, "Maven repository URLs, tried in order (default Maven Central)")
	flags.StringVar(&opts.cacheDir, "cache-dir", filepath.Join(cacheDir, "trivy-java-resolver"), "local repository directory")
	flags.IntVar(&opts.retry, "retry", 3, "HTTP retries per request")
	flags.BoolVar(&opts.skipChecksums, "skip-checksums", false, "don't verify *.sha1 checksums of downloaded files")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(
		newResolveCmd(opts),
		newVersionsCmd(opts),
		newTreeCmd(opts),
	)
	return cmd
}

func newLogger(level, format string) (*slog.Logger, error) {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil, xerrors.Errorf("invalid log level: %s", level)
	}

	handlerOpts := &slog.HandlerOptions{Level: l}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts)), nil
	}
	return nil, xerrors.Errorf("invalid log format: %s", format)
}

func (o *globalOptions) client() (*maven.Client, error) {
	c, err := maven.New(maven.Option{
		Repositories:  o.repositories,
		CacheDir:      o.cacheDir,
		RetryMax:      o.retry,
		SkipChecksums: o.skipChecksums,
	}, version.NewComparator())
	if err != nil {
		return nil, xerrors.Errorf("repository client error: %w", err)
	}
	return c, nil
}

// parseRoot parses group:artifact[:range] arguments. versionRange overrides the
// version part. A bare version matches only itself.
func parseRoot(arg, versionRange string) (types.Coordinate, error) {
	coord, err := types.ParseCoordinate(arg)
	if err != nil {
		return types.Coordinate{}, err
	}
	if versionRange != "" {
		coord.Version = versionRange
	}
	return coord, nil
}
