package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.Coordinate
		wantErr string
	}{
		{
			name:  "group and artifact",
			input: "junit:junit",
			want:  types.Coordinate{GroupID: "junit", ArtifactID: "junit", Extension: types.JarType},
		},
		{
			name:  "version",
			input: "junit:junit:4.13",
			want:  types.Coordinate{GroupID: "junit", ArtifactID: "junit", Extension: types.JarType, Version: "4.13"},
		},
		{
			name:  "extension",
			input: "androidx.core:core:aar:1.9.0",
			want:  types.Coordinate{GroupID: "androidx.core", ArtifactID: "core", Extension: types.AarType, Version: "1.9.0"},
		},
		{
			name:  "classifier",
			input: "io.netty:netty-transport-native-epoll:jar:linux-x86_64:4.1.100.Final",
			want: types.Coordinate{GroupID: "io.netty", ArtifactID: "netty-transport-native-epoll", Extension: types.JarType,
				Classifier: "linux-x86_64", Version: "4.1.100.Final"},
		},
		{
			name:    "single part",
			input:   "junit",
			wantErr: `invalid coordinate "junit"`,
		},
		{
			name:    "empty group",
			input:   ":junit:4.13",
			wantErr: `invalid coordinate ":junit:4.13"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseCoordinate(tt.input)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinate_String(t *testing.T) {
	c := types.Coordinate{GroupID: "io.netty", ArtifactID: "netty-transport-native-epoll", Extension: types.JarType,
		Classifier: "linux-x86_64", Version: "4.1.100.Final"}
	assert.Equal(t, "io.netty:netty-transport-native-epoll:jar:linux-x86_64:4.1.100.Final", c.String())
	assert.Equal(t, "io.netty:netty-transport-native-epoll:jar:linux-x86_64", c.Key().String())
	assert.Equal(t, "io.netty:netty-transport-native-epoll:jar:linux-x86_64:4.1.99.Final", c.WithVersion("4.1.99.Final").String())
}
