package version_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

type fakeLister struct {
	versions []string
	err      error
}

func (l fakeLister) ListVersions(_ context.Context, _ types.Coordinate) ([]string, error) {
	return l.versions, l.err
}

func TestSelector_Select(t *testing.T) {
	root := types.Coordinate{
		GroupID:    "net.example",
		ArtifactID: "launcher",
		Extension:  types.JarType,
		Version:    "[1,)",
	}
	tests := []struct {
		name           string
		lister         fakeLister
		allowSnapshots bool
		want           string
	}{
		{
			name:   "snapshots disallowed",
			lister: fakeLister{versions: []string{"1.0", "1.1", "1.2-SNAPSHOT"}},
			want:   "1.1",
		},
		{
			name:           "snapshots allowed",
			lister:         fakeLister{versions: []string{"1.0", "1.1", "1.2-SNAPSHOT"}},
			allowSnapshots: true,
			want:           "1.2-SNAPSHOT",
		},
		{
			name:   "only snapshots",
			lister: fakeLister{versions: []string{"1.2-SNAPSHOT"}},
			want:   "[1,)",
		},
		{
			name:   "lookup failure keeps the requested coordinate",
			lister: fakeLister{err: errors.New("connection refused")},
			want:   "[1,)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := version.NewSelector(tt.lister, version.NewComparator())
			got := s.Select(context.Background(), root, tt.allowSnapshots)
			assert.Equal(t, root.WithVersion(tt.want), got)
		})
	}
}
