package news

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	dbtypes "github.com/javokhirdev/newsline-backend/pkg/db/types"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/pagination"
)

func setupNewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS news_posts (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  text TEXT NOT NULL,
  author_id TEXT NOT NULL,
  medias TEXT NOT NULL DEFAULT '[]',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(schema).Error)
	return conn
}

func insertPost(t *testing.T, conn *gorm.DB, title, text string, author uuid.UUID, createdAt time.Time) *models.NewsPost {
	t.Helper()
	post := &models.NewsPost{
		ID:        uuid.New(),
		Title:     title,
		Text:      text,
		AuthorID:  author,
		Medias:    dbtypes.MediaRefList{},
		CreatedAt: createdAt,
	}
	require.NoError(t, conn.Create(post).Error)
	return post
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupNewsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	post := &models.NewsPost{
		ID:       uuid.New(),
		Title:    "Bridge reopens",
		Text:     "Repairs finished two weeks early.",
		AuthorID: uuid.New(),
		Medias: dbtypes.MediaRefList{
			{Path: "/uploads/images/bridge.png", Kind: enums.UploadKindImage},
		},
	}
	require.NoError(t, repo.Create(ctx, conn, post))

	found, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, found.Title)
	require.Len(t, found.Medias, 1)
	assert.Equal(t, "/uploads/images/bridge.png", found.Medias[0].Path)
	assert.Equal(t, enums.UploadKindImage, found.Medias[0].Kind)
}

func TestRepositoryFindMissingReturnsNotFound(t *testing.T) {
	repo := NewRepository(setupNewsTestDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestRepositoryUpdateFields(t *testing.T) {
	conn := setupNewsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	post := insertPost(t, conn, "Old title", "Body", uuid.New(), time.Now().UTC())
	require.NoError(t, repo.UpdateFields(ctx, post.ID, map[string]any{"title": "New title"}))

	found, err := repo.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "New title", found.Title)
	assert.Equal(t, "Body", found.Text)
}

func TestRepositoryDelete(t *testing.T) {
	conn := setupNewsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	post := insertPost(t, conn, "Short lived", "Body", uuid.New(), time.Now().UTC())
	require.NoError(t, repo.Delete(ctx, conn, post.ID))

	_, err := repo.FindByID(ctx, post.ID)
	require.Error(t, err)
}

func TestRepositoryListSearchIsCaseInsensitive(t *testing.T) {
	conn := setupNewsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	insertPost(t, conn, "Flood WARNING issued", "Stay home.", uuid.New(), now)
	insertPost(t, conn, "Sports roundup", "The warning signs were there.", uuid.New(), now.Add(time.Minute))
	insertPost(t, conn, "Weather outlook", "Sunny all week.", uuid.New(), now.Add(2*time.Minute))

	posts, total, err := repo.List(ctx, ListNewsInput{Search: "warning"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, posts, 2)
}

func TestRepositoryListFiltersByOwner(t *testing.T) {
	conn := setupNewsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := uuid.New()
	insertPost(t, conn, "Mine", "Body", owner, now)
	insertPost(t, conn, "Theirs", "Body", uuid.New(), now)

	posts, total, err := repo.List(ctx, ListNewsInput{OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, "Mine", posts[0].Title)
}

func TestRepositoryListPaginatesNewestFirst(t *testing.T) {
	conn := setupNewsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	insertPost(t, conn, "oldest", "Body", uuid.New(), base)
	insertPost(t, conn, "middle", "Body", uuid.New(), base.Add(time.Minute))
	insertPost(t, conn, "newest", "Body", uuid.New(), base.Add(2*time.Minute))

	pageOne, total, err := repo.List(ctx, ListNewsInput{
		Pagination: pagination.Params{Page: 1, Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, pageOne, 2)
	assert.Equal(t, "newest", pageOne[0].Title)
	assert.Equal(t, "middle", pageOne[1].Title)

	pageTwo, _, err := repo.List(ctx, ListNewsInput{
		Pagination: pagination.Params{Page: 2, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, pageTwo, 1)
	assert.Equal(t, "oldest", pageTwo[0].Title)
}
