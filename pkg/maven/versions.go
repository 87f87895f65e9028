package maven

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

// ListVersions returns the versions of coord published in any repository that fall into
// coord's version range. An empty version matches everything. When no repository can be
// reached, versions already in the local repository are used.
func (c *Client) ListVersions(ctx context.Context, coord types.Coordinate) ([]string, error) {
	var rng *version.Range
	if coord.Version != "" {
		r, err := version.ParseRange(coord.Version)
		if err != nil {
			return nil, xerrors.Errorf("version range error: %w", err)
		}
		rng = &r
	}

	versions, err := c.remoteVersions(ctx, coord.GroupID, coord.ArtifactID)
	if err != nil {
		local, lerr := c.db.SelectVersions(coord.GroupID, coord.ArtifactID)
		if lerr != nil || len(local) == 0 {
			return nil, xerrors.Errorf("unable to list versions of %s:%s: %w", coord.GroupID, coord.ArtifactID, err)
		}
		c.logger.Warn("Repositories unavailable, using local versions", slog.String("artifact", coord.GroupID+":"+coord.ArtifactID),
			slog.Any("error", err))
		versions = local
	}

	if rng != nil {
		versions = lo.Filter(versions, func(v string, _ int) bool {
			return rng.Contains(c.comparator, v)
		})
	}
	return versions, nil
}

func (c *Client) remoteVersions(ctx context.Context, groupID, artifactID string) ([]string, error) {
	dir := artifactDir(groupID, artifactID)

	var (
		versions []string
		lastErr  error
		reached  bool
	)
	for _, repo := range c.repos {
		vs, err := c.metadataVersions(ctx, repo+dir+"/"+metadataFile)
		if err == nil && len(vs) == 0 {
			// Some repositories don't publish maven-metadata.xml
			vs, err = c.listingVersions(ctx, repo+dir+"/")
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		reached = true
		versions = append(versions, vs...)
	}
	if !reached {
		return nil, lastErr
	}
	return lo.Uniq(versions), nil
}

func (c *Client) metadataVersions(ctx context.Context, url string) ([]string, error) {
	resp, err := c.httpGet(ctx, url)
	if err != nil {
		return nil, xerrors.Errorf("http get error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	} else if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("%s: %s", url, resp.Status)
	}

	var meta metadata
	if err = xml.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, xerrors.Errorf("%s decode error: %w", url, err)
	}
	return meta.Versioning.Versions, nil
}

// listingVersions reads version directories from an HTML directory index.
func (c *Client) listingVersions(ctx context.Context, url string) ([]string, error) {
	resp, err := c.httpGet(ctx, url)
	if err != nil {
		return nil, xerrors.Errorf("http get error: %w", err)
	}
	defer resp.Body.Close()

	// There are cases when url doesn't exist
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	} else if resp.StatusCode != http.StatusOK {
		return nil, xerrors.Errorf("%s: %s", url, resp.Status)
	}

	d, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("can't create new goquery doc: %w", err)
	}

	var versions []string
	d.Find("a").Each(func(i int, selection *goquery.Selection) {
		link := linkFromSelection(selection)
		// only `../` and dirs have `/` suffix
		if link == "../" || !strings.HasSuffix(link, "/") {
			return
		}
		versions = append(versions, path.Base(strings.TrimSuffix(link, "/")))
	})
	return versions, nil
}

// linkFromSelection returns the link from goquery.Selection.
// Repository indexes shorten long names and add the suffix `...` (`.../` for dirs),
// e.g. `<a href="v1.1.0-226-g847ecff2d8e26f249422247d7665fe15f07b1744/">v1.1.0-226-g847ecff2d8e26f249422247d7665fe15.../</a>`.
// In this case we take `href`.
func linkFromSelection(selection *goquery.Selection) string {
	link := selection.Text()
	if href, ok := selection.Attr("href"); ok && (strings.HasSuffix(link, ".../") || strings.HasSuffix(link, "...")) {
		link = href
	}
	return link
}
