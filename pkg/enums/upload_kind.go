package enums

import (
	"fmt"
	"strings"
)

// UploadKind classifies a stored file, derived from its content type at intake.
type UploadKind string

const (
	UploadKindImage UploadKind = "image"
	UploadKindVideo UploadKind = "video"
)

var validUploadKinds = []UploadKind{
	UploadKindImage,
	UploadKindVideo,
}

// String returns the literal string for the kind.
func (k UploadKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is known.
func (k UploadKind) IsValid() bool {
	for _, candidate := range validUploadKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseUploadKind converts raw input into an UploadKind.
func ParseUploadKind(value string) (UploadKind, error) {
	for _, candidate := range validUploadKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upload kind %q", value)
}

// KindForContentType derives the upload kind from a MIME content type.
// Only image/* and video/* are accepted at the upload boundary.
func KindForContentType(contentType string) (UploadKind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return UploadKindImage, true
	case strings.HasPrefix(ct, "video/"):
		return UploadKindVideo, true
	default:
		return "", false
	}
}
