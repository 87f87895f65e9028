package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

func TestRange_Contains(t *testing.T) {
	tests := []struct {
		name     string
		rng      string
		contains []string
		excludes []string
	}{
		{
			name:     "lower bound only",
			rng:      "[1,)",
			contains: []string{"1", "1.0", "1.2-SNAPSHOT", "20.1"},
			excludes: []string{"0.9", "1-SNAPSHOT"},
		},
		{
			name:     "half open",
			rng:      "[1.0,2.0)",
			contains: []string{"1.0", "1.5", "1.9.9"},
			excludes: []string{"0.9", "2.0", "2.1"},
		},
		{
			name:     "upper bound only",
			rng:      "(,1.0]",
			contains: []string{"0.1", "1.0"},
			excludes: []string{"1.0.1"},
		},
		{
			name:     "exact",
			rng:      "[1.5]",
			contains: []string{"1.5"},
			excludes: []string{"1.4", "1.6"},
		},
		{
			name:     "union",
			rng:      "(,1.0],[1.2,)",
			contains: []string{"0.5", "1.2", "3.0"},
			excludes: []string{"1.1"},
		},
		{
			name:     "soft requirement",
			rng:      "1.5",
			contains: []string{"1.5"},
			excludes: []string{"1.6"},
		},
	}
	c := version.NewComparator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := version.ParseRange(tt.rng)
			require.NoError(t, err)
			for _, v := range tt.contains {
				assert.True(t, r.Contains(c, v), v)
			}
			for _, v := range tt.excludes {
				assert.False(t, r.Contains(c, v), v)
			}
		})
	}
}

func TestParseRange_Error(t *testing.T) {
	for _, s := range []string{"", "[1.0", "[]", "(1.0)", "[1,2,3]"} {
		_, err := version.ParseRange(s)
		assert.Error(t, err, s)
	}
}
