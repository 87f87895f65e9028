package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/trivy-java-resolver/pkg/db"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

func InitDB(t *testing.T, artifacts []types.Artifact) db.DB {
	tmpDir := t.TempDir()
	dbc, err := db.New(tmpDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbc.Close() })

	err = dbc.Init()
	require.NoError(t, err)

	if len(artifacts) > 0 {
		err = dbc.InsertArtifacts(artifacts)
		require.NoError(t, err)
	}
	return dbc
}
