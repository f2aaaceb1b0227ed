package news

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository wraps GORM operations for news_posts.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// Create inserts the post inside the provided transaction.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, post *models.NewsPost) error {
	return tx.WithContext(ctx).Create(post).Error
}

// FindByID retrieves a post by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.NewsPost, error) {
	var post models.NewsPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "news post not found")
		}
		return nil, err
	}
	return &post, nil
}

// UpdateFields applies the provided column updates to a post.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.NewsPost{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

// Delete removes the post inside the provided transaction.
func (r *Repository) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&models.NewsPost{}).Error
}

// List returns one page of posts plus the total count for the filter.
func (r *Repository) List(ctx context.Context, input ListNewsInput) ([]models.NewsPost, int64, error) {
	params := input.Pagination.Normalize()

	query := r.db.WithContext(ctx).Model(&models.NewsPost{})
	if search := strings.TrimSpace(input.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(text) LIKE ?", pattern, pattern)
	}
	if input.OwnerID != nil {
		query = query.Where("author_id = ?", *input.OwnerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.NewsPost
	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&posts).
		Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
