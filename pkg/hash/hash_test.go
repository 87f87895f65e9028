package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquasecurity/trivy-java-resolver/pkg/hash"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

func TestCoordinate(t *testing.T) {
	a := types.Coordinate{GroupID: "g", ArtifactID: "a", Extension: types.JarType, Version: "1.0"}

	assert.Equal(t, hash.Coordinate(a), hash.Coordinate(a.WithVersion("1.0")))
	assert.NotEqual(t, hash.Coordinate(a), hash.Coordinate(a.WithVersion("2.0")))

	// the separator keeps "g|ab" and "ga|b" apart
	assert.NotEqual(t,
		hash.Coordinate(types.Coordinate{GroupID: "g", ArtifactID: "ab"}),
		hash.Coordinate(types.Coordinate{GroupID: "ga", ArtifactID: "b"}))
}
