package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// DisplayDateLayout is the date format used on exported rows.
const DisplayDateLayout = "02.01.06"

// StorageDateLayout is the unambiguous date format used in persisted rows.
const StorageDateLayout = "2006-01-02"

// FormatValue renders a value for display output according to the
// column's kind. Missing values render as the empty string.
func FormatValue(kind ValueKind, v float64, ok bool) string {
	if !ok {
		return ""
	}
	switch kind {
	case KindRatio, KindPrice:
		return fmt.Sprintf("%.2f", v)
	case KindPercent:
		return fmt.Sprintf("%.2f%%", v)
	default:
		return groupThousands(v)
	}
}

// StorageValue renders a value for persistence at full precision. Missing
// values persist as the empty string and round-trip back to nil.
func StorageValue(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupThousands formats a count as an integer with comma separators,
// e.g. -1234567 -> "-1,234,567". Contract counts are whole numbers; any
// fractional remainder from upstream arithmetic is rounded away here.
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
