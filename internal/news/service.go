package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/internal/authz"
	"github.com/javokhirdev/newsline-backend/internal/uploads"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
	"github.com/javokhirdev/newsline-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service owns the news post lifecycle, including media binding and
// release of bound uploads on deletion.
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, input CreateNewsInput) (*CreateNewsOutput, error)
	GetByID(ctx context.Context, id uuid.UUID) (*NewsDTO, error)
	Update(ctx context.Context, id, requesterID uuid.UUID, role enums.UserRole, input UpdateNewsInput) (*NewsDTO, error)
	Delete(ctx context.Context, id, requesterID uuid.UUID, role enums.UserRole) error
	List(ctx context.Context, input ListNewsInput) (*ListNewsOutput, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type newsRepository interface {
	Create(ctx context.Context, tx *gorm.DB, post *models.NewsPost) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.NewsPost, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, input ListNewsInput) ([]models.NewsPost, int64, error)
}

type authorListRepository interface {
	AppendNewsID(ctx context.Context, tx *gorm.DB, userID, newsID uuid.UUID) error
	RemoveNewsID(ctx context.Context, tx *gorm.DB, userID, newsID uuid.UUID) error
}

// ServiceParams configure the news service.
type ServiceParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Repo    newsRepository
	Authors authorListRepository
	Binder  uploads.Binder
}

type service struct {
	logg    *logger.Logger
	db      txRunner
	repo    newsRepository
	authors authorListRepository
	binder  uploads.Binder
}

// NewService constructs the news service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("news repository required")
	}
	if params.Authors == nil {
		return nil, fmt.Errorf("author repository required")
	}
	if params.Binder == nil {
		return nil, fmt.Errorf("media binder required")
	}
	return &service{
		logg:    params.Logger,
		db:      params.DB,
		repo:    params.Repo,
		authors: params.Authors,
		binder:  params.Binder,
	}, nil
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, input CreateNewsInput) (*CreateNewsOutput, error) {
	if authorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "author required")
	}
	title := strings.TrimSpace(input.Title)
	text := strings.TrimSpace(input.Text)
	if title == "" || text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title and text are required")
	}

	var (
		post     *models.NewsPost
		rejected []string
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		accepted, rejectedPaths, err := s.binder.Bind(ctx, tx, authorID, input.MediaPaths)
		if err != nil {
			return err
		}
		rejected = rejectedPaths

		post = &models.NewsPost{
			ID:       uuid.New(),
			Title:    title,
			Text:     text,
			AuthorID: authorID,
			Medias:   accepted,
		}
		if err := s.repo.Create(ctx, tx, post); err != nil {
			return err
		}
		return s.authors.AppendNewsID(ctx, tx, authorID, post.ID)
	})
	if err != nil {
		return nil, err
	}

	if len(rejected) > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"news_id": post.ID, "rejected": rejected})
		s.logg.Warn(logCtx, "news post created with rejected media paths")
	}

	dto := toDTO(post)
	return &CreateNewsOutput{Post: dto, RejectedPaths: rejected}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*NewsDTO, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(post)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id, requesterID uuid.UUID, role enums.UserRole, input UpdateNewsInput) (*NewsDTO, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(role, requesterID, post.AuthorID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to modify this post")
	}

	updates := make(map[string]any, 2)
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" && title != post.Title {
			updates["title"] = title
			post.Title = title
		}
	}
	if input.Text != nil {
		if text := strings.TrimSpace(*input.Text); text != "" && text != post.Text {
			updates["text"] = text
			post.Text = text
		}
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}

	if err := s.repo.UpdateFields(ctx, id, updates); err != nil {
		return nil, err
	}

	dto := toDTO(post)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id, requesterID uuid.UUID, role enums.UserRole) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanModify(role, requesterID, post.AuthorID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to delete this post")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		// Bound uploads go back to the unused pool; the reclaimer owns
		// the eventual file deletion.
		if err := s.binder.Release(ctx, tx, post.Medias.Paths()); err != nil {
			return err
		}
		if err := s.authors.RemoveNewsID(ctx, tx, post.AuthorID, post.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, post.ID)
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "news_id", post.ID), "news post deleted")
	return nil
}

func (s *service) List(ctx context.Context, input ListNewsInput) (*ListNewsOutput, error) {
	posts, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, err
	}

	items := make([]NewsDTO, 0, len(posts))
	for i := range posts {
		items = append(items, toDTO(&posts[i]))
	}
	return &ListNewsOutput{
		Items: items,
		Meta:  pagination.MetaFor(input.Pagination, total),
	}, nil
}
