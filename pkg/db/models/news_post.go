package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/javokhirdev/newsline-backend/pkg/db/types"
)

// NewsPost represents a published news entry and its bound media.
type NewsPost struct {
	ID       uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title    string               `gorm:"column:title;not null"`
	Text     string               `gorm:"column:text;not null"`
	AuthorID uuid.UUID            `gorm:"column:author_id;type:uuid;not null;index"`
	Medias   dbtypes.MediaRefList `gorm:"column:medias;type:jsonb;not null;default:'[]'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
