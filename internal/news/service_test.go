package news

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	dbtypes "github.com/javokhirdev/newsline-backend/pkg/db/types"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
	"github.com/javokhirdev/newsline-backend/pkg/pagination"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubNewsRepo struct {
	posts   map[uuid.UUID]*models.NewsPost
	updates map[string]any
	deleted []uuid.UUID
}

func newStubNewsRepo() *stubNewsRepo {
	return &stubNewsRepo{posts: map[uuid.UUID]*models.NewsPost{}}
}

func (s *stubNewsRepo) Create(_ context.Context, _ *gorm.DB, post *models.NewsPost) error {
	s.posts[post.ID] = post
	return nil
}

func (s *stubNewsRepo) FindByID(_ context.Context, id uuid.UUID) (*models.NewsPost, error) {
	if post, ok := s.posts[id]; ok {
		copied := *post
		return &copied, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "news post not found")
}

func (s *stubNewsRepo) UpdateFields(_ context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	return nil
}

func (s *stubNewsRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(s.posts, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubNewsRepo) List(_ context.Context, _ ListNewsInput) ([]models.NewsPost, int64, error) {
	out := make([]models.NewsPost, 0, len(s.posts))
	for _, post := range s.posts {
		out = append(out, *post)
	}
	return out, int64(len(out)), nil
}

type stubAuthorRepo struct {
	appended map[uuid.UUID][]uuid.UUID
	removed  map[uuid.UUID][]uuid.UUID
}

func newStubAuthorRepo() *stubAuthorRepo {
	return &stubAuthorRepo{
		appended: map[uuid.UUID][]uuid.UUID{},
		removed:  map[uuid.UUID][]uuid.UUID{},
	}
}

func (s *stubAuthorRepo) AppendNewsID(_ context.Context, _ *gorm.DB, userID, newsID uuid.UUID) error {
	s.appended[userID] = append(s.appended[userID], newsID)
	return nil
}

func (s *stubAuthorRepo) RemoveNewsID(_ context.Context, _ *gorm.DB, userID, newsID uuid.UUID) error {
	s.removed[userID] = append(s.removed[userID], newsID)
	return nil
}

type stubBinder struct {
	accept   dbtypes.MediaRefList
	reject   []string
	bindErr  error
	released [][]string
}

func (s *stubBinder) Bind(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ []string) (dbtypes.MediaRefList, []string, error) {
	if s.bindErr != nil {
		return nil, s.reject, s.bindErr
	}
	return s.accept, s.reject, nil
}

func (s *stubBinder) Release(_ context.Context, _ *gorm.DB, paths []string) error {
	s.released = append(s.released, paths)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: &bytes.Buffer{}})
}

type newsTestSetup struct {
	service Service
	repo    *stubNewsRepo
	authors *stubAuthorRepo
	binder  *stubBinder
}

func newNewsTestSetup(t *testing.T) *newsTestSetup {
	t.Helper()

	repo := newStubNewsRepo()
	authors := newStubAuthorRepo()
	binder := &stubBinder{}
	svc, err := NewService(ServiceParams{
		Logger:  testLogger(),
		DB:      stubTxRunner{},
		Repo:    repo,
		Authors: authors,
		Binder:  binder,
	})
	require.NoError(t, err)
	return &newsTestSetup{service: svc, repo: repo, authors: authors, binder: binder}
}

func seedPost(setup *newsTestSetup, author uuid.UUID, medias dbtypes.MediaRefList) *models.NewsPost {
	post := &models.NewsPost{
		ID:       uuid.New(),
		Title:    "Flooding on the riverfront",
		Text:     "Water levels rose overnight.",
		AuthorID: author,
		Medias:   medias,
	}
	setup.repo.posts[post.ID] = post
	return post
}

func TestCreateBindsMediaAndTracksAuthorList(t *testing.T) {
	setup := newNewsTestSetup(t)
	author := uuid.New()
	setup.binder.accept = dbtypes.MediaRefList{
		{Path: "/uploads/images/a.png", Kind: enums.UploadKindImage},
	}
	setup.binder.reject = []string{"/uploads/images/missing.png"}

	out, err := setup.service.Create(context.Background(), author, CreateNewsInput{
		Title:      "Storm warning",
		Text:       "Heavy rain expected through Friday.",
		MediaPaths: []string{"/uploads/images/a.png", "/uploads/images/missing.png"},
	})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []string{"/uploads/images/missing.png"}, out.RejectedPaths)
	require.Len(t, out.Post.Medias, 1)
	assert.Equal(t, "/uploads/images/a.png", out.Post.Medias[0].Path)

	// The new post id must land on the author's list.
	require.Len(t, setup.authors.appended[author], 1)
	assert.Equal(t, out.Post.ID, setup.authors.appended[author][0])
}

func TestCreateFailsWhenBinderRejectsEverything(t *testing.T) {
	setup := newNewsTestSetup(t)
	setup.binder.bindErr = pkgerrors.New(pkgerrors.CodeValidation, "no valid media files")

	_, err := setup.service.Create(context.Background(), uuid.New(), CreateNewsInput{
		Title:      "Storm warning",
		Text:       "Heavy rain expected.",
		MediaPaths: []string{"/uploads/images/missing.png"},
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Empty(t, setup.repo.posts)
}

func TestCreateValidatesTitleAndText(t *testing.T) {
	setup := newNewsTestSetup(t)

	_, err := setup.service.Create(context.Background(), uuid.New(), CreateNewsInput{
		Title: "   ",
		Text:  "body",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestUpdateByAuthorChangesOnlyProvidedFields(t *testing.T) {
	setup := newNewsTestSetup(t)
	author := uuid.New()
	post := seedPost(setup, author, nil)

	title := "Updated headline"
	dto, err := setup.service.Update(context.Background(), post.ID, author, enums.UserRoleUser, UpdateNewsInput{
		Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated headline", dto.Title)
	assert.Equal(t, post.Text, dto.Text)
	assert.Equal(t, map[string]any{"title": "Updated headline"}, setup.repo.updates)
}

func TestUpdateRejectsNoEffectiveChange(t *testing.T) {
	setup := newNewsTestSetup(t)
	author := uuid.New()
	post := seedPost(setup, author, nil)

	sameTitle := post.Title
	_, err := setup.service.Update(context.Background(), post.ID, author, enums.UserRoleUser, UpdateNewsInput{
		Title: &sameTitle,
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, err = setup.service.Update(context.Background(), post.ID, author, enums.UserRoleUser, UpdateNewsInput{})
	require.Error(t, err)
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	setup := newNewsTestSetup(t)
	post := seedPost(setup, uuid.New(), nil)

	title := "Hijacked"
	_, err := setup.service.Update(context.Background(), post.ID, uuid.New(), enums.UserRoleUser, UpdateNewsInput{
		Title: &title,
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestUpdateAllowsAdminOnForeignPost(t *testing.T) {
	setup := newNewsTestSetup(t)
	post := seedPost(setup, uuid.New(), nil)

	title := "Moderated headline"
	dto, err := setup.service.Update(context.Background(), post.ID, uuid.New(), enums.UserRoleAdmin, UpdateNewsInput{
		Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, "Moderated headline", dto.Title)
}

func TestDeleteReleasesMediaAndPrunesAuthorList(t *testing.T) {
	setup := newNewsTestSetup(t)
	author := uuid.New()
	post := seedPost(setup, author, dbtypes.MediaRefList{
		{Path: "/uploads/images/a.png", Kind: enums.UploadKindImage},
		{Path: "/uploads/videos/b.mp4", Kind: enums.UploadKindVideo},
	})

	require.NoError(t, setup.service.Delete(context.Background(), post.ID, author, enums.UserRoleUser))

	require.Len(t, setup.binder.released, 1)
	assert.ElementsMatch(t, []string{"/uploads/images/a.png", "/uploads/videos/b.mp4"}, setup.binder.released[0])
	require.Len(t, setup.authors.removed[author], 1)
	assert.Equal(t, post.ID, setup.authors.removed[author][0])
	assert.Empty(t, setup.repo.posts)
}

func TestDeleteForbiddenForNonOwner(t *testing.T) {
	setup := newNewsTestSetup(t)
	post := seedPost(setup, uuid.New(), nil)

	err := setup.service.Delete(context.Background(), post.ID, uuid.New(), enums.UserRoleUser)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
	assert.Empty(t, setup.binder.released)
}

func TestDeleteNotFound(t *testing.T) {
	setup := newNewsTestSetup(t)

	err := setup.service.Delete(context.Background(), uuid.New(), uuid.New(), enums.UserRoleUser)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestListBuildsPaginationMeta(t *testing.T) {
	setup := newNewsTestSetup(t)
	author := uuid.New()
	for i := 0; i < 3; i++ {
		seedPost(setup, author, nil)
	}

	out, err := setup.service.List(context.Background(), ListNewsInput{
		Pagination: pagination.Params{Page: 1, Limit: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Meta.Total)
	assert.True(t, out.Meta.HasNext)
	assert.False(t, out.Meta.HasPrev)
}
