package types

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

type ArchiveType string

const (
	// types of files
	JarType ArchiveType = "jar"
	AarType ArchiveType = "aar"
	PomType ArchiveType = "pom"
)

// Coordinate identifies a Maven artifact. Version may hold a concrete version or a range.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Extension  ArchiveType
	Classifier string
	Version    string
}

// Key is the identity of a coordinate for deduplication. Version is not part of it.
type Key struct {
	GroupID    string
	ArtifactID string
	Extension  ArchiveType
	Classifier string
}

func (c Coordinate) Key() Key {
	return Key{
		GroupID:    c.GroupID,
		ArtifactID: c.ArtifactID,
		Extension:  c.Extension,
		Classifier: c.Classifier,
	}
}

// WithVersion returns a copy of the coordinate pinned to the given version.
func (c Coordinate) WithVersion(version string) Coordinate {
	c.Version = version
	return c
}

// String renders the coordinate as group:artifact:extension[:classifier]:version
func (c Coordinate) String() string {
	ss := []string{c.GroupID, c.ArtifactID}
	if c.Extension != "" {
		ss = append(ss, string(c.Extension))
	}
	if c.Classifier != "" {
		ss = append(ss, c.Classifier)
	}
	if c.Version != "" {
		ss = append(ss, c.Version)
	}
	return strings.Join(ss, ":")
}

func (k Key) String() string {
	if k.Classifier == "" {
		return fmt.Sprintf("%s:%s:%s", k.GroupID, k.ArtifactID, k.Extension)
	}
	return fmt.Sprintf("%s:%s:%s:%s", k.GroupID, k.ArtifactID, k.Extension, k.Classifier)
}

// ParseCoordinate parses group:artifact[:extension[:classifier]][:version].
// A coordinate with three parts is read as group:artifact:version.
func ParseCoordinate(s string) (Coordinate, error) {
	ss := strings.Split(s, ":")
	c := Coordinate{Extension: JarType}
	switch len(ss) {
	case 2:
		c.GroupID, c.ArtifactID = ss[0], ss[1]
	case 3:
		c.GroupID, c.ArtifactID, c.Version = ss[0], ss[1], ss[2]
	case 4:
		c.GroupID, c.ArtifactID, c.Extension, c.Version = ss[0], ss[1], ArchiveType(ss[2]), ss[3]
	case 5:
		c.GroupID, c.ArtifactID, c.Extension, c.Classifier, c.Version = ss[0], ss[1], ArchiveType(ss[2]), ss[3], ss[4]
	default:
		return Coordinate{}, xerrors.Errorf("invalid coordinate %q", s)
	}
	if c.GroupID == "" || c.ArtifactID == "" {
		return Coordinate{}, xerrors.Errorf("invalid coordinate %q", s)
	}
	return c, nil
}

type Scope string

const (
	ScopeCompile  Scope = "compile"
	ScopeRuntime  Scope = "runtime"
	ScopeProvided Scope = "provided"
	ScopeSystem   Scope = "system"
	ScopeTest     Scope = "test"
	ScopeImport   Scope = "import"
)

// DependencyNode is one node of an expanded dependency tree.
type DependencyNode struct {
	Coordinate Coordinate
	Scope      Scope
	Optional   bool
	Children   []*DependencyNode
}

// State of a resolution run. States only move forward.
type State int

const (
	SearchingVersion State = iota
	ResolvingDependencies
	ResolvingArtifacts
	Done
)

func (s State) String() string {
	switch s {
	case SearchingVersion:
		return "SearchingVersion"
	case ResolvingDependencies:
		return "ResolvingDependencies"
	case ResolvingArtifacts:
		return "ResolvingArtifacts"
	case Done:
		return "Done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// UnknownSize marks a transfer whose total size is not known.
const UnknownSize int64 = -1

// TransferEvent reports bytes transferred so far for one artifact.
type TransferEvent struct {
	Artifact    Coordinate
	Total       int64
	Transferred int64
}

// TransferListener receives transfer events. Implementations must be safe for concurrent use.
type TransferListener interface {
	Transferred(event TransferEvent)
}

// Artifact is a file stored in the local repository.
type Artifact struct {
	GroupID    string
	ArtifactID string
	Version    string
	Classifier string
	Extension  ArchiveType
	SHA1       []byte
	Path       string
}
