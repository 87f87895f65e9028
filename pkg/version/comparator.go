package version

import (
	"strings"
)

const snapshotMarker = "SNAPSHOT"

// Comparator orders Maven version strings.
//
// Versions are split on '.' and '-' and compared component by component.
// Numeric components compare as numbers, the SNAPSHOT marker sorts before any
// other component and everything else compares lexically.
//
// When every shared component is equal the shorter version is older, so
// "1.2" < "1.2.0", unlike semantic versioning. A missing component still ranks
// above SNAPSHOT, so "1.0-SNAPSHOT" < "1.0".
type Comparator struct{}

func NewComparator() Comparator {
	return Comparator{}
}

// Compare returns -1, 0 or +1.
func (Comparator) Compare(a, b string) int {
	as, bs := split(a), split(b)
	for i := 0; i < max(len(as), len(bs)); i++ {
		if c := compareComponent(at(as, i), at(bs, i)); c != 0 {
			return c
		}
	}
	return 0
}

// Less reports whether a is older than b.
func (c Comparator) Less(a, b string) bool {
	return c.Compare(a, b) < 0
}

// Max returns the newest version in vs, or "" when vs is empty.
func (c Comparator) Max(vs []string) string {
	var latest string
	for i, v := range vs {
		if i == 0 || c.Compare(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}

// IsSnapshot reports whether v is a moving pre-release build.
func IsSnapshot(v string) bool {
	return strings.HasSuffix(v, snapshotMarker)
}

type component struct {
	value   string
	missing bool
}

func split(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-'
	})
}

func at(ss []string, i int) component {
	if i >= len(ss) {
		return component{missing: true}
	}
	return component{value: ss[i]}
}

// rank orders component kinds: SNAPSHOT < missing < anything else.
func (c component) rank() int {
	switch {
	case c.missing:
		return 1
	case c.value == snapshotMarker:
		return 0
	}
	return 2
}

func compareComponent(a, b component) int {
	if ra, rb := a.rank(), b.rank(); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	} else if ra != 2 {
		return 0
	}

	if isNumber(a.value) && isNumber(b.value) {
		return compareNumbers(a.value, b.value)
	}
	return strings.Compare(a.value, b.value)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compareNumbers compares decimal digit strings of any length.
func compareNumbers(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
