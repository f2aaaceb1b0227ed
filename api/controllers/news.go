package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/javokhirdev/newsline-backend/api/middleware"
	"github.com/javokhirdev/newsline-backend/api/responses"
	"github.com/javokhirdev/newsline-backend/api/validators"
	"github.com/javokhirdev/newsline-backend/internal/news"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
)

type newsMediaRef struct {
	FilePath string `json:"file_path" validate:"required"`
}

type createNewsRequest struct {
	Title  string         `json:"title" validate:"required"`
	Text   string         `json:"desc" validate:"required"`
	Medias []newsMediaRef `json:"medias,omitempty" validate:"dive"`
}

type updateNewsRequest struct {
	Title *string `json:"title,omitempty"`
	Text  *string `json:"desc,omitempty"`
}

func newsID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid news id")
	}
	return id, nil
}

func requesterRole(r *http.Request) enums.UserRole {
	return enums.UserRole(middleware.RoleFromContext(r.Context()))
}

// NewsCreate publishes a post, binding any referenced uploads.
func NewsCreate(svc news.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createNewsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mediaPaths := make([]string, 0, len(payload.Medias))
		for _, ref := range payload.Medias {
			mediaPaths = append(mediaPaths, ref.FilePath)
		}
		out, err := svc.Create(r.Context(), authorID, news.CreateNewsInput{
			Title:      payload.Title,
			Text:       payload.Text,
			MediaPaths: mediaPaths,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// NewsGet returns one post by id.
func NewsGet(svc news.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := newsID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

// NewsUpdate edits a post's title or text.
func NewsUpdate(svc news.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := newsID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requester, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateNewsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.Update(r.Context(), id, requester, requesterRole(r), news.UpdateNewsInput{
			Title: payload.Title,
			Text:  payload.Text,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

// NewsDelete removes a post and releases its bound uploads.
func NewsDelete(svc news.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := newsID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requester, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id, requester, requesterRole(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// NewsListMine lists the authenticated account's posts.
func NewsListMine(svc news.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listOwnedNews(svc, logg, ownerID)(w, r)
	}
}

// NewsListByUser lists a given account's posts.
func NewsListByUser(svc news.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := userID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listOwnedNews(svc, logg, ownerID)(w, r)
	}
}

func listOwnedNews(svc news.Service, logg *logger.Logger, ownerID uuid.UUID) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.List(r.Context(), news.ListNewsInput{
			Search:     strings.TrimSpace(r.URL.Query().Get("search")),
			OwnerID:    &ownerID,
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, out.Items, out.Meta)
	}
}

// NewsList returns a filtered, paginated feed.
func NewsList(svc news.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := news.ListNewsInput{
			Search:     strings.TrimSpace(r.URL.Query().Get("search")),
			Pagination: params,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("owner_id")); raw != "" {
			ownerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner id"))
				return
			}
			input.OwnerID = &ownerID
		}

		out, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, out.Items, out.Meta)
	}
}
