package packingproof

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode"
)

var videoExtensions = map[string]string{
	"video/mp4":       ".mp4",
	"video/webm":      ".webm",
	"video/quicktime": ".mov",
	"video/x-msvideo": ".avi",
	"video/3gpp":      ".3gp",
}

func parseVideoMime(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	mediaType = strings.ToLower(mediaType)
	if !strings.HasPrefix(mediaType, "video/") {
		return "", fmt.Errorf("only video files are accepted")
	}
	return mediaType, nil
}

// extensionFor prefers the uploaded file's own extension and falls back to the mime type.
func extensionFor(fileName, mimeType string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext != "" && len(ext) <= 6 && isPlainExtension(ext[1:]) {
		return ext
	}
	if known, ok := videoExtensions[mimeType]; ok {
		return known
	}
	return ""
}

func isPlainExtension(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
