package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
)

// UploadRecord tracks a stored file from intake until it is either bound
// to an owning entity or reclaimed as an orphan.
type UploadRecord struct {
	ID      uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Path    string           `gorm:"column:path;type:text;not null;uniqueIndex:upload_records_path_key"`
	Kind    enums.UploadKind `gorm:"column:kind;type:text;not null"`
	Used    bool             `gorm:"column:used;not null;default:false;index"`
	OwnerID uuid.UUID        `gorm:"column:owner_id;type:uuid;not null;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
