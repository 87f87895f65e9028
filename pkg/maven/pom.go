package maven

import (
	"context"
	"encoding/xml"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html/charset"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/trivy-java-resolver/pkg/hash"
	"github.com/aquasecurity/trivy-java-resolver/pkg/types"
)

// maxParents bounds parent and import chains.
const maxParents = 16

type pomXML struct {
	GroupID              string                  `xml:"groupId"`
	ArtifactID           string                  `xml:"artifactId"`
	Version              string                  `xml:"version"`
	Packaging            string                  `xml:"packaging"`
	Parent               pomParent               `xml:"parent"`
	Properties           pomProperties           `xml:"properties"`
	DependencyManagement pomDependencyManagement `xml:"dependencyManagement"`
	Dependencies         []pomDependency         `xml:"dependencies>dependency"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependencyManagement struct {
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomDependency struct {
	GroupID    string         `xml:"groupId"`
	ArtifactID string         `xml:"artifactId"`
	Version    string         `xml:"version"`
	Type       string         `xml:"type"`
	Classifier string         `xml:"classifier"`
	Scope      string         `xml:"scope"`
	Optional   string         `xml:"optional"`
	Exclusions []pomExclusion `xml:"exclusions>exclusion"`
}

type pomExclusion struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

// pomProperties reads the free-form <properties> element.
type pomProperties map[string]string

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	*p = make(pomProperties)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err = d.DecodeElement(&v, &t); err != nil {
				return err
			}
			(*p)[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

func parsePOM(r io.Reader) (*pomXML, error) {
	var pom pomXML
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&pom); err != nil {
		return nil, xerrors.Errorf("unable to decode pom file: %w", err)
	}
	return &pom, nil
}

// managedKey identifies a dependencyManagement entry.
type managedKey struct {
	groupID, artifactID, typ, classifier string
}

func (d pomDependency) managedKey() managedKey {
	return managedKey{d.GroupID, d.ArtifactID, lo.Ternary(d.Type == "", "jar", d.Type), d.Classifier}
}

// project is an effective POM: parents merged, properties interpolated.
type project struct {
	groupID      string
	artifactID   string
	version      string
	properties   map[string]string
	managed      map[managedKey]pomDependency
	dependencies []pomDependency
}

// loadProject returns the effective model of coord's POM. depth counts parent and BOM hops.
func (c *Client) loadProject(ctx context.Context, coord types.Coordinate, depth int) (*project, error) {
	if depth > maxParents {
		return nil, xerrors.Errorf("%s: parent chain too deep", coord)
	}
	pomCoord := types.Coordinate{
		GroupID:    coord.GroupID,
		ArtifactID: coord.ArtifactID,
		Extension:  types.PomType,
		Version:    coord.Version,
	}
	key := hash.Coordinate(pomCoord)

	c.mu.Lock()
	p, ok := c.poms[key]
	c.mu.Unlock()
	if ok {
		return p, nil
	}

	pom, err := c.fetchPOM(ctx, pomCoord)
	if err != nil {
		return nil, err
	}

	var parent *project
	if pom.Parent.ArtifactID != "" {
		parent, err = c.loadProject(ctx, types.Coordinate{
			GroupID:    pom.Parent.GroupID,
			ArtifactID: pom.Parent.ArtifactID,
			Version:    pom.Parent.Version,
		}, depth+1)
		if err != nil {
			return nil, xerrors.Errorf("parent of %s: %w", pomCoord, err)
		}
	}

	p = c.effective(ctx, pom, parent, depth)

	c.mu.Lock()
	c.poms[key] = p
	c.mu.Unlock()
	return p, nil
}

func (c *Client) fetchPOM(ctx context.Context, coord types.Coordinate) (*pomXML, error) {
	fileVersion, err := c.fileVersion(ctx, coord)
	if err != nil {
		return nil, err
	}
	resp, err := c.get(ctx, remotePath(coord, fileVersion))
	if err != nil {
		return nil, xerrors.Errorf("pom fetch error: %w", err)
	}
	defer resp.Body.Close()

	pom, err := parsePOM(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", coord, err)
	}
	return pom, nil
}

// effective merges pom with its parent model and applies interpolation and BOM imports.
func (c *Client) effective(ctx context.Context, pom *pomXML, parent *project, depth int) *project {
	p := &project{
		groupID:    pom.GroupID,
		artifactID: pom.ArtifactID,
		version:    pom.Version,
		properties: make(map[string]string),
		managed:    make(map[managedKey]pomDependency),
	}
	if parent != nil {
		p.groupID = lo.Ternary(p.groupID == "", parent.groupID, p.groupID)
		p.version = lo.Ternary(p.version == "", parent.version, p.version)
		for k, v := range parent.properties {
			p.properties[k] = v
		}
		for k, v := range parent.managed {
			p.managed[k] = v
		}
		p.dependencies = append(p.dependencies, parent.dependencies...)
		p.properties["project.parent.groupId"] = parent.groupID
		p.properties["project.parent.version"] = parent.version
		p.properties["parent.version"] = parent.version
	}
	for k, v := range pom.Properties {
		p.properties[k] = v
	}
	// e.g. <version>${revision}</version>
	p.groupID = p.expand(p.groupID)
	p.version = p.expand(p.version)
	for _, k := range []string{"project.groupId", "pom.groupId", "groupId"} {
		p.properties[k] = p.groupID
	}
	for _, k := range []string{"project.artifactId", "pom.artifactId", "artifactId"} {
		p.properties[k] = p.artifactID
	}
	for _, k := range []string{"project.version", "pom.version", "version"} {
		p.properties[k] = p.version
	}

	for _, d := range pom.DependencyManagement.Dependencies {
		d = p.interpolate(d)
		if d.Scope == string(types.ScopeImport) && d.Type == "pom" {
			bom, err := c.loadProject(ctx, types.Coordinate{GroupID: d.GroupID, ArtifactID: d.ArtifactID, Version: d.Version}, depth+1)
			if err != nil {
				c.logger.Warn("Unable to import BOM", slog.String("bom", d.GroupID+":"+d.ArtifactID+":"+d.Version),
					slog.Any("error", err))
				continue
			}
			for k, v := range bom.managed {
				if _, ok := p.managed[k]; !ok {
					p.managed[k] = v
				}
			}
			continue
		}
		p.managed[d.managedKey()] = d
	}

	own := lo.Map(pom.Dependencies, func(d pomDependency, _ int) pomDependency {
		return p.interpolate(d)
	})
	p.dependencies = append(own, p.dependencies...)
	return p
}

var propertyRe = regexp.MustCompile(`\$\{([^}]+)\}`)

func (p *project) expand(s string) string {
	// nested properties resolve over a few rounds
	for i := 0; i < 5 && strings.Contains(s, "${"); i++ {
		s = propertyRe.ReplaceAllStringFunc(s, func(m string) string {
			if v, ok := p.properties[m[2:len(m)-1]]; ok {
				return v
			}
			return m
		})
	}
	return strings.TrimSpace(s)
}

func (p *project) interpolate(d pomDependency) pomDependency {
	d.GroupID = p.expand(d.GroupID)
	d.ArtifactID = p.expand(d.ArtifactID)
	d.Version = p.expand(d.Version)
	d.Type = p.expand(d.Type)
	d.Classifier = p.expand(d.Classifier)
	d.Scope = p.expand(d.Scope)
	d.Optional = p.expand(d.Optional)
	return d
}
