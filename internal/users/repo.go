package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/db"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// Create inserts a new user and returns the persisted model. A duplicate
// email surfaces as Conflict.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateFields applies the provided column updates to a user.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates).
		Error
	if err != nil && db.IsUniqueViolation(err, "users_email_key") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
	}
	return err
}

// SetProfileImage overwrites the profile_image column inside the provided
// transaction. A nil path clears the reference.
func (r *Repository) SetProfileImage(ctx context.Context, tx *gorm.DB, id uuid.UUID, path *string) error {
	return tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("profile_image", path).
		Error
}

// List returns one page of users plus the total count for the filter.
func (r *Repository) List(ctx context.Context, input ListUsersInput) ([]models.User, int64, error) {
	params := input.Pagination.Normalize()

	query := r.db.WithContext(ctx).Model(&models.User{})
	if search := strings.TrimSpace(input.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if input.Role != nil {
		query = query.Where("role = ?", *input.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var found []models.User
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&found).
		Error
	if err != nil {
		return nil, 0, err
	}
	return found, total, nil
}

// AppendNewsID adds a news post id to the user's owned list.
func (r *Repository) AppendNewsID(ctx context.Context, tx *gorm.DB, userID, newsID uuid.UUID) error {
	user, err := findForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	if user.NewsIDs.Contains(newsID) {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("news_ids", append(user.NewsIDs, newsID)).
		Error
}

// RemoveNewsID drops a news post id from the user's owned list.
func (r *Repository) RemoveNewsID(ctx context.Context, tx *gorm.DB, userID, newsID uuid.UUID) error {
	user, err := findForUpdate(ctx, tx, userID)
	if err != nil {
		return err
	}
	if !user.NewsIDs.Contains(newsID) {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("news_ids", user.NewsIDs.Without(newsID)).
		Error
}

// findForUpdate reads the user under a row lock so concurrent news_ids
// rewrites serialize instead of overwriting each other. The sqlite driver
// drops the FOR UPDATE clause, which is fine for tests since sqlite
// serializes writers anyway.
func findForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, err
	}
	return &user, nil
}
