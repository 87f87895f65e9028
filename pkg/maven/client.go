package maven

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/db"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

const mavenRepoURL = "https://repo.maven.apache.org/maven2/"

var (
	ErrNotFound = xerrors.New("not found in any repository")
	ErrChecksum = xerrors.New("checksum mismatch")
)

type Option struct {
	// Repositories are tried in order. Defaults to Maven Central.
	Repositories []string
	// CacheDir holds the local repository and its index.
	CacheDir string

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// SkipChecksums disables *.sha1 verification of downloaded files.
	SkipChecksums bool
}

// Client is a repository backend over Maven layout HTTP repositories with a local
// repository in CacheDir.
type Client struct {
	http          *retryablehttp.Client
	repos         []string
	dir           string
	db            db.DB
	comparator    version.Comparator
	skipChecksums bool
	logger        *slog.Logger

	mu   sync.Mutex
	poms map[uint64]*project
}

func New(opt Option, comparator version.Comparator) (*Client, error) {
	if opt.RetryWaitMin == 0 {
		opt.RetryWaitMin = time.Second
	}
	if opt.RetryWaitMax == 0 {
		opt.RetryWaitMax = 10 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opt.RetryMax
	client.Logger = slog.Default()
	client.RetryWaitMin = opt.RetryWaitMin
	client.RetryWaitMax = opt.RetryWaitMax
	client.Backoff = retryablehttp.LinearJitterBackoff
	client.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		// Artifacts are looked up in every repository in turn, so 404 is expected.
		if resp.StatusCode == http.StatusNotFound {
			return
		}
		if resp.StatusCode != http.StatusOK {
			slog.Warn("Unexpected http response", slog.String("url", resp.Request.URL.String()), slog.String("status", resp.Status))
		}
	}
	client.ErrorHandler = func(resp *http.Response, err error, numTries int) (*http.Response, error) {
		logger := slog.Default()
		if resp != nil {
			logger = slog.With(slog.String("url", resp.Request.URL.String()), slog.Int("status_code", resp.StatusCode),
				slog.Int("num_tries", numTries))
		}

		if err == nil && resp != nil {
			err = xerrors.New(resp.Status)
		}
		if err != nil {
			logger = logger.With(slog.String("error", err.Error()))
		}
		logger.Error("HTTP request failed after retries")
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, xerrors.Errorf("HTTP request failed after %d tries: %w", numTries, err)
	}

	if len(opt.Repositories) == 0 {
		opt.Repositories = []string{mavenRepoURL}
	}
	repos := make([]string, len(opt.Repositories))
	for i, r := range opt.Repositories {
		repos[i] = strings.TrimSuffix(r, "/") + "/"
	}

	dbc, err := db.New(opt.CacheDir)
	if err != nil {
		return nil, xerrors.Errorf("db open error: %w", err)
	}
	if err = dbc.Init(); err != nil {
		return nil, xerrors.Errorf("db init error: %w", err)
	}
	slog.Info("Local repository", slog.String("path", opt.CacheDir))

	return &Client{
		http:          client,
		repos:         repos,
		dir:           opt.CacheDir,
		db:            dbc,
		comparator:    comparator,
		skipChecksums: opt.SkipChecksums,
		logger:        slog.Default().With(slog.String("component", "maven")),
		poms:          make(map[uint64]*project),
	}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// get fetches path from the first repository that has it. The caller closes the body.
func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	var errs []error
	for _, repo := range c.repos {
		resp, err := c.httpGet(ctx, repo+path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			errs = append(errs, xerrors.Errorf("%s: %s", resp.Request.URL, resp.Status))
		}
	}
	if len(errs) > 0 {
		return nil, xerrors.Errorf("unable to get %s: %w", path, errs[len(errs)-1])
	}
	return nil, xerrors.Errorf("%s: %w", path, ErrNotFound)
}

func (c *Client) httpGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, xerrors.Errorf("unable to create a HTTP request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("http error (%s): %w", url, err)
	}
	return resp, nil
}
