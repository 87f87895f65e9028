package hash

import (
	"hash/fnv"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

// Coordinate hashes the identity and version of an artifact.
func Coordinate(c types.Coordinate) uint64 {
	h := fnv.New64a()
	h.Write([]byte(c.GroupID))
	h.Write([]byte("|"))
	h.Write([]byte(c.ArtifactID))
	h.Write([]byte("|"))
	h.Write([]byte(c.Extension))
	h.Write([]byte("|"))
	h.Write([]byte(c.Classifier))
	h.Write([]byte("|"))
	h.Write([]byte(c.Version))
	return h.Sum64()
}
