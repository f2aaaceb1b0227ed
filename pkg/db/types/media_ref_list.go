package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/javokhirdev/newsline-backend/pkg/enums"
)

// MediaRef is a single media attachment carried on a news post.
type MediaRef struct {
	Path string           `json:"file_path"`
	Kind enums.UploadKind `json:"file_type"`
}

// MediaRefList persists media attachments as a JSON column.
type MediaRefList []MediaRef

func (l *MediaRefList) Scan(src any) error {
	if src == nil {
		*l = MediaRefList{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("MediaRefList: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*l = MediaRefList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

func (l MediaRefList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("MediaRefList: marshal: %w", err)
	}
	return string(raw), nil
}

// Paths returns the stored paths in order.
func (l MediaRefList) Paths() []string {
	out := make([]string, 0, len(l))
	for _, ref := range l {
		out = append(out, ref.Path)
	}
	return out
}

// ContainsPath reports whether path is already attached.
func (l MediaRefList) ContainsPath(path string) bool {
	for _, ref := range l {
		if ref.Path == path {
			return true
		}
	}
	return false
}
