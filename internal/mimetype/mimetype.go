// Package mimetype infers a Content-Type from a file's suffix.
package mimetype

import "strings"

// ForPath returns the Content-Type for path by suffix, matching the
// reference implementation's table. Anything unrecognized is
// "text/plain".
func ForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return "text/html"
	case strings.HasSuffix(lower, ".css"):
		return "text/css"
	case strings.HasSuffix(lower, ".js"):
		return "application/javascript"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".ico"):
		return "image/x-icon"
	default:
		return "text/plain"
	}
}
