package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquasecurity/trivy-java-resolver/pkg/version"
)

func TestComparator_Compare(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{
			name: "major wins",
			a:    "2.0",
			b:    "1.9.9",
			want: 1,
		},
		{
			name: "numeric, not lexical",
			a:    "1.10",
			b:    "1.9",
			want: 1,
		},
		{
			name: "snapshot is older than release",
			a:    "1.0-SNAPSHOT",
			b:    "1.0",
			want: -1,
		},
		{
			name: "equal snapshots",
			a:    "1.0-SNAPSHOT",
			b:    "1.0-SNAPSHOT",
			want: 0,
		},
		{
			name: "shorter is older",
			a:    "1.2",
			b:    "1.2.0",
			want: -1,
		},
		{
			name: "snapshot is older than any numbered component",
			a:    "1.0.SNAPSHOT",
			b:    "1.0.0",
			want: -1,
		},
		{
			name: "lexical fallback",
			a:    "1.0-beta",
			b:    "1.0-alpha",
			want: 1,
		},
		{
			name: "leading zeros",
			a:    "1.010",
			b:    "1.10",
			want: 0,
		},
		{
			name: "numbers larger than int64",
			a:    "1.99999999999999999999",
			b:    "1.100000000000000000000",
			want: -1,
		},
		{
			name: "identical",
			a:    "3.2.1",
			b:    "3.2.1",
			want: 0,
		},
	}
	c := version.NewComparator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, c.Compare(tt.b, tt.a))
		})
	}
}

func TestComparator_TotalOrder(t *testing.T) {
	versions := []string{
		"1", "1.0", "1.0.0", "1.0-SNAPSHOT", "1.0.1", "1.1", "1.1-SNAPSHOT", "1.2", "1.2.0",
		"1.9.9", "1.10", "2.0", "2.0-SNAPSHOT", "2.0-rc1", "2.0-rc2", "10.0",
	}
	c := version.NewComparator()
	for _, a := range versions {
		assert.Equal(t, 0, c.Compare(a, a), a)
		for _, b := range versions {
			// antisymmetry
			assert.Equal(t, c.Compare(a, b), -c.Compare(b, a), "%s vs %s", a, b)
			for _, v := range versions {
				// transitivity
				if c.Compare(a, b) <= 0 && c.Compare(b, v) <= 0 {
					assert.LessOrEqual(t, c.Compare(a, v), 0, "%s <= %s <= %s", a, b, v)
				}
			}
		}
	}
}

func TestComparator_Max(t *testing.T) {
	c := version.NewComparator()
	assert.Equal(t, "1.2-SNAPSHOT", c.Max([]string{"1.0", "1.2-SNAPSHOT", "1.1"}))
	assert.Equal(t, "", c.Max(nil))
}

func TestIsSnapshot(t *testing.T) {
	assert.True(t, version.IsSnapshot("1.2-SNAPSHOT"))
	assert.False(t, version.IsSnapshot("1.2"))
}
