package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	dbtypes "github.com/javokhirdev/newsline-backend/pkg/db/types"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	"github.com/javokhirdev/newsline-backend/pkg/pagination"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID   `json:"id"`
	Email        string      `json:"email"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Role         string      `json:"role"`
	ProfileImage *string     `json:"profile_image,omitempty"`
	NewsIDs      []uuid.UUID `json:"news_ids"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Role:         u.Role.String(),
		ProfileImage: u.ProfileImage,
		NewsIDs:      append([]uuid.UUID(nil), []uuid.UUID(u.NewsIDs)...),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleUser
	}

	return &models.User{
		ID:           uuid.New(),
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Role:         role,
		NewsIDs:      dbtypes.UUIDArray{},
	}
}

// ListUsersInput captures the admin browse filters and paging.
type ListUsersInput struct {
	Search     string
	Role       *enums.UserRole
	Pagination pagination.Params
}

// ListUsersOutput carries one page of users plus paging metadata.
type ListUsersOutput struct {
	Items []UserDTO       `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

// UpdateNameInput carries the optional name fields a profile edit may change.
type UpdateNameInput struct {
	FirstName *string
	LastName  *string
}

// ChangePasswordInput carries a password rotation request.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}
