package store

import "strings"

const (
	canvasPrefix   = "cashboard-canvas-"
	viewportPrefix = "cashboard-viewport-"
)

// SanitizeTitle replaces every character outside [A-Za-z0-9] with '-'.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func CanvasKey(title string) string { return canvasPrefix + SanitizeTitle(title) }

func ViewportKey(title string) string { return viewportPrefix + SanitizeTitle(title) }
