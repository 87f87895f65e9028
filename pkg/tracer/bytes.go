package tracer

import (
	"fmt"
)

// FormatBytes renders n with one decimal place, e.g. "1.5 MiB", or "1.5 MB" when si is set.
// Values below one unit are printed as plain bytes.
func FormatBytes(n int64, si bool) string {
	unit := int64(1024)
	prefixes := "KMGTPE"
	suffix := "iB"
	if si {
		unit = 1000
		suffix = "B"
	}
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := unit, 0
	for m := n / unit; m >= unit && exp < len(prefixes)-1; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %c%s", float64(n)/float64(div), prefixes[exp], suffix)
}
