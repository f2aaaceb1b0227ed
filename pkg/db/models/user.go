package models

import (
	"time"

	"github.com/google/uuid"
	dbtypes "github.com/javokhirdev/newsline-backend/pkg/db/types"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string            `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string            `gorm:"column:password_hash;not null"`
	FirstName    string            `gorm:"column:first_name;not null"`
	LastName     string            `gorm:"column:last_name;not null"`
	Role         enums.UserRole    `gorm:"column:role;type:text;not null;default:'user'"`
	ProfileImage *string           `gorm:"column:profile_image"`
	NewsIDs      dbtypes.UUIDArray `gorm:"type:uuid[];column:news_ids;not null;default:ARRAY[]::uuid[]"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
