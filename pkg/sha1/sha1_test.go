package sha1_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/trivy-java-resolver/pkg/sha1"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "plain digest",
			data: "51d28a27d919ce8690a40f4f335b9d591ceb16e9\n",
			want: "51d28a27d919ce8690a40f4f335b9d591ceb16e9",
		},
		{
			name: "digest with file name",
			data: "a2363646a9dd05955633b450010b59a21af8a423  abbot-1.4.0.jar",
			want: "a2363646a9dd05955633b450010b59a21af8a423",
		},
		{
			name: "file name first",
			data: "xercesImpl-2.9.0.jar 596D91E67631B0DEB05FB685D8D1B6735F3E4F60",
			want: "596d91e67631b0deb05fb685d8d1b6735f3e4f60",
		},
		{
			name: "empty",
			data: "  \n",
			want: sha1.NotAvailable,
		},
		{
			name: "garbage",
			data: "<html>404</html>",
			want: sha1.NotAvailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sha1.Parse([]byte(tt.data)))
		})
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	got, err := sha1.File(path)
	require.NoError(t, err)

	want, err := sha1.Decode("aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
