package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
	_ "modernc.org/sqlite"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

const dbFileName = "artifacts.db"

// DB indexes the artifacts stored in the local repository together with their SHA-1.
type DB struct {
	client *sql.DB
}

func Path(cacheDir string) string {
	dbPath := filepath.Join(cacheDir, dbFileName)
	return dbPath
}

func New(cacheDir string) (DB, error) {
	dbPath := Path(cacheDir)
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0700); err != nil {
		return DB{}, xerrors.Errorf("failed to mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return DB{}, xerrors.Errorf("can't open db: %w", err)
	}
	// fetch workers write concurrently; sqlite allows a single writer
	db.SetMaxOpenConns(1)

	return DB{
		client: db,
	}, nil
}

func (db *DB) Init() error {
	if _, err := db.client.Exec(`CREATE TABLE IF NOT EXISTS artifacts(
		group_id TEXT NOT NULL,
		artifact_id TEXT NOT NULL,
		version TEXT NOT NULL,
		classifier TEXT NOT NULL,
		extension TEXT NOT NULL,
		sha1 BLOB,
		path TEXT NOT NULL)`); err != nil {
		return xerrors.Errorf("unable to create 'artifacts' table: %w", err)
	}
	if _, err := db.client.Exec("CREATE UNIQUE INDEX IF NOT EXISTS artifacts_idx ON artifacts(group_id, artifact_id, version, classifier, extension)"); err != nil {
		return xerrors.Errorf("unable to create 'artifacts_idx' index: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.client.Close()
}

//////////////////////////////////////
// functions to interaction with DB //
//////////////////////////////////////

func (db *DB) InsertArtifacts(artifacts []types.Artifact) error {
	tx, err := db.client.Begin()
	if err != nil {
		return xerrors.Errorf("unable to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range artifacts {
		if _, err = tx.Exec(`INSERT INTO artifacts(group_id, artifact_id, version, classifier, extension, sha1, path) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(group_id, artifact_id, version, classifier, extension) DO UPDATE SET sha1=excluded.sha1, path=excluded.path`,
			a.GroupID, a.ArtifactID, a.Version, a.Classifier, a.Extension, a.SHA1, a.Path); err != nil {
			return xerrors.Errorf("unable to insert to 'artifacts' table: %w", err)
		}
	}
	return tx.Commit()
}

// SelectArtifact returns the stored artifact for coord. ok is false when it is not indexed.
func (db *DB) SelectArtifact(coord types.Coordinate) (types.Artifact, bool, error) {
	var a types.Artifact
	row := db.client.QueryRow(`SELECT group_id, artifact_id, version, classifier, extension, sha1, path FROM artifacts
		WHERE group_id = ? AND artifact_id = ? AND version = ? AND classifier = ? AND extension = ?`,
		coord.GroupID, coord.ArtifactID, coord.Version, coord.Classifier, coord.Extension)
	err := row.Scan(&a.GroupID, &a.ArtifactID, &a.Version, &a.Classifier, &a.Extension, &a.SHA1, &a.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Artifact{}, false, nil
	} else if err != nil {
		return types.Artifact{}, false, xerrors.Errorf("select artifact error: %w", err)
	}
	return a, true, nil
}

// DeleteArtifact drops the index entry for coord.
func (db *DB) DeleteArtifact(coord types.Coordinate) error {
	if _, err := db.client.Exec(`DELETE FROM artifacts
		WHERE group_id = ? AND artifact_id = ? AND version = ? AND classifier = ? AND extension = ?`,
		coord.GroupID, coord.ArtifactID, coord.Version, coord.Classifier, coord.Extension); err != nil {
		return xerrors.Errorf("delete artifact error: %w", err)
	}
	return nil
}

// SelectVersions returns the versions stored for group and artifact.
func (db *DB) SelectVersions(groupID, artifactID string) ([]string, error) {
	rows, err := db.client.Query(`SELECT DISTINCT version FROM artifacts WHERE group_id = ? AND artifact_id = ? ORDER BY version`,
		groupID, artifactID)
	if err != nil {
		return nil, xerrors.Errorf("select versions error: %w", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err = rows.Scan(&v); err != nil {
			return nil, xerrors.Errorf("scan row error: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
