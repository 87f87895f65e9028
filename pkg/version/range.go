package version

import (
	"strings"

	"golang.org/x/xerrors"
)

// Range is a Maven version range such as "[1.0,2.0)", "[1,)", "(,1.0]" or "[1.5]".
// A bare version ("1.5") is a soft requirement and matches only itself.
type Range struct {
	raw       string
	intervals []interval
}

type interval struct {
	lower, upper                   string
	lowerInclusive, upperInclusive bool
}

// IsRange reports whether s uses range syntax.
func IsRange(s string) bool {
	return strings.ContainsAny(s, "[(")
}

// ParseRange parses a Maven version range, including unions like "(,1.0],[1.2,)".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, xerrors.New("empty version range")
	}
	if !IsRange(s) {
		return Range{raw: s, intervals: []interval{{
			lower: s, upper: s, lowerInclusive: true, upperInclusive: true,
		}}}, nil
	}

	r := Range{raw: s}
	rest := s
	for rest != "" {
		end := strings.IndexAny(rest, "])")
		if end < 0 {
			return Range{}, xerrors.Errorf("unbalanced version range %q", s)
		}
		iv, err := parseInterval(rest[:end+1])
		if err != nil {
			return Range{}, xerrors.Errorf("invalid version range %q: %w", s, err)
		}
		r.intervals = append(r.intervals, iv)
		rest = strings.TrimPrefix(strings.TrimSpace(rest[end+1:]), ",")
		rest = strings.TrimSpace(rest)
	}
	return r, nil
}

func parseInterval(s string) (interval, error) {
	if len(s) < 2 || (s[0] != '[' && s[0] != '(') {
		return interval{}, xerrors.Errorf("bad interval %q", s)
	}
	iv := interval{
		lowerInclusive: s[0] == '[',
		upperInclusive: s[len(s)-1] == ']',
	}
	body := s[1 : len(s)-1]
	bounds := strings.Split(body, ",")
	switch len(bounds) {
	case 1:
		// "[1.0]" pins an exact version
		if !iv.lowerInclusive || !iv.upperInclusive || body == "" {
			return interval{}, xerrors.Errorf("bad exact interval %q", s)
		}
		iv.lower, iv.upper = body, body
	case 2:
		iv.lower = strings.TrimSpace(bounds[0])
		iv.upper = strings.TrimSpace(bounds[1])
	default:
		return interval{}, xerrors.Errorf("bad interval %q", s)
	}
	return iv, nil
}

// Contains reports whether v falls into the range.
func (r Range) Contains(c Comparator, v string) bool {
	for _, iv := range r.intervals {
		if iv.contains(c, v) {
			return true
		}
	}
	return false
}

func (r Range) String() string {
	return r.raw
}

func (iv interval) contains(c Comparator, v string) bool {
	if iv.lower != "" {
		cmp := c.Compare(v, iv.lower)
		if cmp < 0 || (cmp == 0 && !iv.lowerInclusive) {
			return false
		}
	}
	if iv.upper != "" {
		cmp := c.Compare(v, iv.upper)
		if cmp > 0 || (cmp == 0 && !iv.upperInclusive) {
			return false
		}
	}
	return true
}
