package news

import (
	"time"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	"github.com/javokhirdev/newsline-backend/pkg/pagination"
)

// CreateNewsInput captures the payload for creating a news post.
type CreateNewsInput struct {
	Title      string
	Text       string
	MediaPaths []string
}

// UpdateNewsInput carries the optional fields an update may change.
type UpdateNewsInput struct {
	Title *string
	Text  *string
}

// ListNewsInput captures browse filters and paging.
type ListNewsInput struct {
	Search     string
	OwnerID    *uuid.UUID
	Pagination pagination.Params
}

// MediaRefDTO is one bound attachment on a news post.
type MediaRefDTO struct {
	Path string `json:"file_path"`
	Kind string `json:"file_type"`
}

// NewsDTO represents the news post payload returned to clients.
type NewsDTO struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Text      string        `json:"desc"`
	AuthorID  uuid.UUID     `json:"author_id"`
	Medias    []MediaRefDTO `json:"medias"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CreateNewsOutput is the partial-success shape for post creation.
type CreateNewsOutput struct {
	Post          NewsDTO  `json:"post"`
	RejectedPaths []string `json:"rejected_file_paths"`
}

// ListNewsOutput carries one page of posts plus paging metadata.
type ListNewsOutput struct {
	Items []NewsDTO       `json:"items"`
	Meta  pagination.Meta `json:"meta"`
}

func toDTO(post *models.NewsPost) NewsDTO {
	medias := make([]MediaRefDTO, 0, len(post.Medias))
	for _, ref := range post.Medias {
		medias = append(medias, MediaRefDTO{Path: ref.Path, Kind: ref.Kind.String()})
	}
	return NewsDTO{
		ID:        post.ID,
		Title:     post.Title,
		Text:      post.Text,
		AuthorID:  post.AuthorID,
		Medias:    medias,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}
