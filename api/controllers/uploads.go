package controllers

import (
	"errors"
	"net/http"

	"github.com/javokhirdev/newsline-backend/api/responses"
	"github.com/javokhirdev/newsline-backend/internal/uploads"
	"github.com/javokhirdev/newsline-backend/pkg/config"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
)

const uploadsFormField = "files"

type uploadsResponse struct {
	Uploaded []uploads.StoredUpload `json:"uploaded"`
	Rejected []uploads.RejectedFile `json:"rejected,omitempty"`
}

// UploadsCreate accepts multipart files, stores them on disk and records
// each one as an unused upload owned by the requester.
func UploadsCreate(svc uploads.IntakeService, cfg config.UploadsConfig, logg *logger.Logger) http.HandlerFunc {
	// One request can carry several files, each individually capped, so
	// the parser limit is the per-file ceiling times the file budget.
	maxRequestBytes := cfg.MaxVideoBytes()*int64(cfg.MaxFilesPerRequest) + 1<<20

	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := requesterID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File[uploadsFormField]
		if len(headers) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no files provided"))
			return
		}

		files := make([]uploads.FileInput, 0, len(headers))
		closers := make([]func() error, 0, len(headers))
		defer func() {
			for _, closeFile := range closers {
				closeFile()
			}
		}()
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable file part"))
				return
			}
			closers = append(closers, file.Close)
			files = append(files, uploads.FileInput{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Content:     file,
			})
		}

		stored, rejected, err := svc.Store(r.Context(), ownerID, files)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, uploadsResponse{
			Uploaded: stored,
			Rejected: rejected,
		})
	}
}
