package maven

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	jsha1 "github.com/aquasecurity/trivy-java-resolver/pkg/sha1"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

// FetchArtifact stores coord in the local repository and returns its path. A stored file
// is reused when its SHA-1 matches the index. listener receives progress of the download.
func (c *Client) FetchArtifact(ctx context.Context, coord types.Coordinate, listener types.TransferListener) (string, error) {
	if p, ok := c.stored(coord); ok {
		if fi, err := os.Stat(p); err == nil && listener != nil {
			listener.Transferred(types.TransferEvent{Artifact: coord, Total: fi.Size(), Transferred: fi.Size()})
		}
		return p, nil
	}

	fileVersion, err := c.fileVersion(ctx, coord)
	if err != nil {
		return "", xerrors.Errorf("%s: %w", coord, err)
	}
	resp, err := c.get(ctx, remotePath(coord, fileVersion))
	if err != nil {
		return "", xerrors.Errorf("%s: %w", coord, err)
	}
	defer resp.Body.Close()

	dst := c.localPath(coord)
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", xerrors.Errorf("unable to create a directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return "", xerrors.Errorf("unable to create a temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := sha1.New()
	w := &progressWriter{
		coord:    coord,
		total:    resp.ContentLength,
		listener: listener,
	}
	if w.total < 0 {
		w.total = types.UnknownSize
	}
	_, err = io.Copy(io.MultiWriter(tmp, h, w), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", xerrors.Errorf("%s download error: %w", coord, err)
	}
	digest := h.Sum(nil)

	if !c.skipChecksums {
		if err = c.verify(ctx, resp.Request.URL.String()+".sha1", digest); err != nil {
			return "", xerrors.Errorf("%s: %w", coord, err)
		}
	}

	if err = os.Rename(tmp.Name(), dst); err != nil {
		return "", xerrors.Errorf("unable to rename %s: %w", tmp.Name(), err)
	}
	if err = c.db.InsertArtifacts([]types.Artifact{
		{
			GroupID:    coord.GroupID,
			ArtifactID: coord.ArtifactID,
			Version:    coord.Version,
			Classifier: coord.Classifier,
			Extension:  coord.Extension,
			SHA1:       digest,
			Path:       dst,
		},
	}); err != nil {
		return "", xerrors.Errorf("unable to index %s: %w", coord, err)
	}
	c.logger.Debug("Artifact stored", slog.String("artifact", coord.String()), slog.String("path", dst))
	return dst, nil
}

// stored returns the indexed path of coord when the file on disk still matches its SHA-1.
// Stale entries are dropped.
func (c *Client) stored(coord types.Coordinate) (string, bool) {
	a, ok, err := c.db.SelectArtifact(coord)
	if err != nil {
		c.logger.Warn("Index lookup failed", slog.String("artifact", coord.String()), slog.Any("error", err))
		return "", false
	} else if !ok {
		return "", false
	}

	digest, err := jsha1.File(a.Path)
	if err == nil && bytes.Equal(digest, a.SHA1) {
		return a.Path, true
	}
	c.logger.Debug("Stale index entry", slog.String("artifact", coord.String()))
	if err = c.db.DeleteArtifact(coord); err != nil {
		c.logger.Warn("Unable to delete index entry", slog.String("artifact", coord.String()), slog.Any("error", err))
	}
	return "", false
}

// verify compares digest with the checksum published next to the file. Files without a
// checksum are accepted.
func (c *Client) verify(ctx context.Context, url string, digest []byte) error {
	resp, err := c.httpGet(ctx, url)
	if err != nil {
		return xerrors.Errorf("checksum fetch error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("No checksum published", slog.String("url", url))
		return nil
	} else if resp.StatusCode != http.StatusOK {
		return xerrors.Errorf("%s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.Errorf("unable to read %s: %w", url, err)
	}
	want, err := jsha1.Decode(jsha1.Parse(data))
	if err != nil {
		return xerrors.Errorf("%s: %w", url, err)
	} else if want == nil {
		// empty or malformed checksum file
		return nil
	}
	if !bytes.Equal(digest, want) {
		return xerrors.Errorf("got %s, want %s: %w", hex.EncodeToString(digest), hex.EncodeToString(want), ErrChecksum)
	}
	return nil
}

type progressWriter struct {
	coord       types.Coordinate
	total       int64
	transferred int64
	listener    types.TransferListener
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.transferred += int64(len(p))
	if w.listener != nil {
		w.listener.Transferred(types.TransferEvent{
			Artifact:    w.coord,
			Total:       w.total,
			Transferred: w.transferred,
		})
	}
	return len(p), nil
}
