package post

import "strings"

var fileMarkers = []string{"pdf", "document", "msword", "sheet", "presentation", "text"}

// KindFromContentType picks the media kind for an upload from its MIME type.
func KindFromContentType(contentType string) MediaKind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "image"):
		return KindImage
	case strings.HasPrefix(ct, "video/"):
		return KindVideo
	}
	for _, m := range fileMarkers {
		if strings.Contains(ct, m) {
			return KindFile
		}
	}
	return KindText
}
