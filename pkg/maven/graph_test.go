package maven

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

func Test_transitiveScope(t *testing.T) {
	tests := []struct {
		name   string
		parent types.Scope
		dep    types.Scope
		isRoot bool
		want   types.Scope
		wantOk bool
	}{
		{"root keeps test", types.ScopeCompile, types.ScopeTest, true, types.ScopeTest, true},
		{"compile under compile", types.ScopeCompile, types.ScopeCompile, false, types.ScopeCompile, true},
		{"runtime under compile", types.ScopeCompile, types.ScopeRuntime, false, types.ScopeRuntime, true},
		{"compile under runtime", types.ScopeRuntime, types.ScopeCompile, false, types.ScopeRuntime, true},
		{"compile under provided", types.ScopeProvided, types.ScopeCompile, false, types.ScopeProvided, true},
		{"provided is not transitive", types.ScopeCompile, types.ScopeProvided, false, "", false},
		{"test is not transitive", types.ScopeCompile, types.ScopeTest, false, "", false},
		{"system is not transitive", types.ScopeCompile, types.ScopeSystem, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := transitiveScope(tt.parent, tt.dep, tt.isRoot)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_artifactType(t *testing.T) {
	tests := []struct {
		typ            string
		classifier     string
		wantExt        types.ArchiveType
		wantClassifier string
	}{
		{"", "", types.JarType, ""},
		{"bundle", "", types.JarType, ""},
		{"test-jar", "", types.JarType, "tests"},
		{"aar", "", types.AarType, ""},
		{"jar", "sources", types.JarType, "sources"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			ext, classifier := artifactType(tt.typ, tt.classifier)
			assert.Equal(t, tt.wantExt, ext)
			assert.Equal(t, tt.wantClassifier, classifier)
		})
	}
}

func Test_excluded(t *testing.T) {
	exclusions := []pomExclusion{
		{GroupID: "com.example", ArtifactID: "excluded"},
		{GroupID: "org.slf4j", ArtifactID: "*"},
	}
	assert.True(t, excluded(exclusions, pomDependency{GroupID: "com.example", ArtifactID: "excluded"}))
	assert.True(t, excluded(exclusions, pomDependency{GroupID: "org.slf4j", ArtifactID: "slf4j-api"}))
	assert.False(t, excluded(exclusions, pomDependency{GroupID: "com.example", ArtifactID: "lib"}))
	assert.True(t, excluded([]pomExclusion{{GroupID: "*", ArtifactID: "*"}}, pomDependency{GroupID: "any", ArtifactID: "thing"}))
}
