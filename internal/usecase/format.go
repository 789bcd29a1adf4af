package usecase

import (
	"fmt"
	"strings"
	"time"
)

// ImagePlaceholder replaces image URLs wherever a message is previewed.
const ImagePlaceholder = "📷 Photo"

const DefaultStorageHostMarker = "firebasestorage"

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// IsImageMessage reports whether text is an uploaded image: it ends in an image
// extension (query string ignored) or points at the storage host.
func IsImageMessage(text, hostMarker string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if hostMarker != "" && strings.Contains(lower, strings.ToLower(hostMarker)) {
		return true
	}
	path := lower
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) || strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func PreviewText(text, hostMarker string) string {
	if IsImageMessage(text, hostMarker) {
		return ImagePlaceholder
	}
	return text
}

// RelativeTime renders t against now: "Just now", "5m ago", "3h ago", "2d ago",
// and a calendar date past a week. A zero time renders as "".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
	return t.Local().Format("Jan 2, 2006")
}
