package export

import (
	"fmt"
	"strings"
	"time"
)

// Filename builds "<prefix>_<filter>_<YYYY-MM-DD>.<ext>". Characters outside
// letters, digits, '-' and '_' in the filter become '_'.
func Filename(prefix, filter string, date time.Time, ext string) string {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = "All"
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, sanitize(filter), date.Format("2006-01-02"), strings.TrimPrefix(ext, "."))
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// ContentDisposition returns an attachment header value for filename
func ContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
