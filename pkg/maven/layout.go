package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

const metadataFile = "maven-metadata.xml"

type metadata struct {
	GroupID    string     `xml:"groupId"`
	ArtifactID string     `xml:"artifactId"`
	Version    string     `xml:"version"`
	Versioning versioning `xml:"versioning"`
}

type versioning struct {
	Versions    []string `xml:"versions>version"`
	LastUpdated string   `xml:"lastUpdated"`
	Snapshot    snapshot `xml:"snapshot"`
}

type snapshot struct {
	Timestamp   string `xml:"timestamp"`
	BuildNumber int    `xml:"buildNumber"`
}

// artifactDir returns "org/example/foo" for org.example:foo.
func artifactDir(groupID, artifactID string) string {
	return path.Join(append(strings.Split(groupID, "."), artifactID)...)
}

// fileName returns "foo-1.0-classifier.jar". fileVersion differs from the version
// directory for timestamped snapshots.
func fileName(coord types.Coordinate, fileVersion string) string {
	name := coord.ArtifactID + "-" + fileVersion
	if coord.Classifier != "" {
		name += "-" + coord.Classifier
	}
	return fmt.Sprintf("%s.%s", name, coord.Extension)
}

// remotePath returns the repository path of coord relative to the repository root.
func remotePath(coord types.Coordinate, fileVersion string) string {
	return path.Join(artifactDir(coord.GroupID, coord.ArtifactID), coord.Version, fileName(coord, fileVersion))
}

// localPath returns where coord is stored inside the local repository.
func (c *Client) localPath(coord types.Coordinate) string {
	return filepath.Join(c.dir, filepath.FromSlash(artifactDir(coord.GroupID, coord.ArtifactID)), coord.Version,
		fileName(coord, coord.Version))
}

// fileVersion resolves the version used in file names. Snapshot directories hold
// timestamped files, e.g. foo-1.0-20240101.120000-3.jar for 1.0-SNAPSHOT.
func (c *Client) fileVersion(ctx context.Context, coord types.Coordinate) (string, error) {
	if !version.IsSnapshot(coord.Version) {
		return coord.Version, nil
	}

	p := path.Join(artifactDir(coord.GroupID, coord.ArtifactID), coord.Version, metadataFile)
	resp, err := c.get(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return coord.Version, nil
	} else if err != nil {
		return "", xerrors.Errorf("snapshot metadata error: %w", err)
	}
	defer resp.Body.Close()

	var meta metadata
	if err = xml.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", xerrors.Errorf("%s decode error: %w", p, err)
	}
	snap := meta.Versioning.Snapshot
	if snap.Timestamp == "" || snap.BuildNumber == 0 {
		return coord.Version, nil
	}
	base := strings.TrimSuffix(coord.Version, "SNAPSHOT")
	return fmt.Sprintf("%s%s-%d", base, snap.Timestamp, snap.BuildNumber), nil
}
