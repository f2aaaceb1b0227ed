package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/internal/authz"
	"github.com/javokhirdev/newsline-backend/pkg/config"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
	"github.com/javokhirdev/newsline-backend/pkg/pagination"
	"github.com/javokhirdev/newsline-backend/pkg/security"
	"gorm.io/gorm"
)

// Service exposes profile operations, including the profile image swap.
type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	GetUser(ctx context.Context, requesterID uuid.UUID, requesterRole enums.UserRole, id uuid.UUID) (*UserDTO, error)
	ListUsers(ctx context.Context, requesterRole enums.UserRole, input ListUsersInput) (*ListUsersOutput, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) (*UserDTO, error)
	UpdateName(ctx context.Context, id uuid.UUID, input UpdateNameInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, id uuid.UUID, input ChangePasswordInput) error
	SetProfileImage(ctx context.Context, id uuid.UUID, newPath string) (*UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, input ListUsersInput) ([]models.User, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SetProfileImage(ctx context.Context, tx *gorm.DB, id uuid.UUID, path *string) error
}

type uploadClaimRepository interface {
	ClaimByPath(ctx context.Context, tx *gorm.DB, path string) (*models.UploadRecord, error)
	ReleaseByPath(ctx context.Context, tx *gorm.DB, path string) error
}

// ServiceParams configure the users service.
type ServiceParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Repo     userRepository
	Uploads  uploadClaimRepository
	Password config.PasswordConfig
}

type service struct {
	logg     *logger.Logger
	db       txRunner
	repo     userRepository
	uploads  uploadClaimRepository
	password config.PasswordConfig
}

// NewService constructs the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Uploads == nil {
		return nil, fmt.Errorf("upload repository required")
	}
	return &service{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repo,
		uploads:  params.Uploads,
		password: params.Password,
	}, nil
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// GetUser reads another account's record. Only the account itself or an
// admin may see the full record.
func (s *service) GetUser(ctx context.Context, requesterID uuid.UUID, requesterRole enums.UserRole, id uuid.UUID) (*UserDTO, error) {
	if !authz.CanModify(requesterRole, requesterID, id) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this user")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// ListUsers browses accounts with optional search and role filters.
// Admin only.
func (s *service) ListUsers(ctx context.Context, requesterRole enums.UserRole, input ListUsersInput) (*ListUsersOutput, error) {
	if requesterRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if input.Role != nil && !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown role filter")
	}

	found, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, err
	}

	items := make([]UserDTO, 0, len(found))
	for i := range found {
		items = append(items, *FromModel(&found[i]))
	}
	return &ListUsersOutput{
		Items: items,
		Meta:  pagination.MetaFor(input.Pagination, total),
	}, nil
}

func (s *service) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (*UserDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Email == email {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is unchanged")
	}

	if err := s.repo.UpdateFields(ctx, id, map[string]any{"email": email}); err != nil {
		return nil, err
	}
	user.Email = email
	return FromModel(user), nil
}

func (s *service) UpdateName(ctx context.Context, id uuid.UUID, input UpdateNameInput) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any, 2)
	if input.FirstName != nil {
		if first := strings.TrimSpace(*input.FirstName); first != "" && first != user.FirstName {
			updates["first_name"] = first
			user.FirstName = first
		}
	}
	if input.LastName != nil {
		if last := strings.TrimSpace(*input.LastName); last != "" && last != user.LastName {
			updates["last_name"] = last
			user.LastName = last
		}
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, id uuid.UUID, input ChangePasswordInput) error {
	if strings.TrimSpace(input.NewPassword) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(input.NewPassword, s.password)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return s.repo.UpdateFields(ctx, id, map[string]any{"password_hash": hash})
}

// SetProfileImage swaps the account's profile image reference: the new
// record is claimed, the previous one released, and the account row
// updated inside one transaction so a failed update never leaves the new
// record pinned.
func (s *service) SetProfileImage(ctx context.Context, id uuid.UUID, newPath string) (*UserDTO, error) {
	newPath = strings.TrimSpace(newPath)
	if newPath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "path is required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ProfileImage != nil && *user.ProfileImage == newPath {
		return FromModel(user), nil
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		record, err := s.uploads.ClaimByPath(ctx, tx, newPath)
		if err != nil {
			return err
		}
		if record.Kind != enums.UploadKindImage {
			return pkgerrors.New(pkgerrors.CodeValidation, "profile image must be an image upload")
		}
		if !authz.CanBind(id, record.OwnerID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "upload belongs to another account")
		}

		if user.ProfileImage != nil && *user.ProfileImage != "" {
			if err := s.uploads.ReleaseByPath(ctx, tx, *user.ProfileImage); err != nil {
				return err
			}
		}
		return s.repo.SetProfileImage(ctx, tx, id, &newPath)
	})
	if err != nil {
		return nil, err
	}

	user.ProfileImage = &newPath
	s.logg.Info(s.logg.WithField(ctx, "user_id", id.String()), "profile image updated")
	return FromModel(user), nil
}
