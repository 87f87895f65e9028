package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/trivy-java-resolver/pkg/fileutil"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "slice",
			input: []string{"1.0", "1.1"},
			want:  "[\n  \"1.0\",\n  \"1.1\"\n]\n",
		},
		{
			name: "struct",
			input: struct {
				Files []string `json:"files"`
			}{Files: []string{"/repo/a.jar"}},
			want: "{\n  \"files\": [\n    \"/repo/a.jar\"\n  ]\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "out", "result.json")
			require.NoError(t, fileutil.WriteJSON(path, tt.input))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))

			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}
