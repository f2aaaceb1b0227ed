package uploads

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/config"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
)

// FileInput is one file handed over by the multipart boundary.
type FileInput struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// StoredUpload describes a file that passed intake.
type StoredUpload struct {
	ID   uuid.UUID        `json:"id"`
	Path string           `json:"file_path"`
	Kind enums.UploadKind `json:"file_type"`
}

// RejectedFile describes a file turned away at the boundary.
type RejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// IntakeService accepts uploaded files onto disk and records them unused.
type IntakeService interface {
	Store(ctx context.Context, ownerID uuid.UUID, files []FileInput) ([]StoredUpload, []RejectedFile, error)
}

type fileStore interface {
	Save(storedPath string, src io.Reader) (int64, error)
	Remove(storedPath string) error
}

type intakeRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) (*models.UploadRecord, error)
}

// IntakeParams configure the intake service.
type IntakeParams struct {
	Repo    intakeRepository
	Files   fileStore
	Logger  *logger.Logger
	Uploads config.UploadsConfig
}

type intakeService struct {
	repo     intakeRepository
	files    fileStore
	logg     *logger.Logger
	maxFiles int
	ceilings map[enums.UploadKind]int64
}

// NewIntakeService constructs the upload intake service.
func NewIntakeService(params IntakeParams) (IntakeService, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("upload repository required")
	}
	if params.Files == nil {
		return nil, fmt.Errorf("file store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxFiles := params.Uploads.MaxFilesPerRequest
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &intakeService{
		repo:     params.Repo,
		files:    params.Files,
		logg:     params.Logger,
		maxFiles: maxFiles,
		ceilings: map[enums.UploadKind]int64{
			enums.UploadKindImage: params.Uploads.MaxImageBytes(),
			enums.UploadKindVideo: params.Uploads.MaxVideoBytes(),
		},
	}, nil
}

func (s *intakeService) Store(ctx context.Context, ownerID uuid.UUID, files []FileInput) ([]StoredUpload, []RejectedFile, error) {
	if ownerID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "owner required")
	}
	if len(files) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "no files provided")
	}
	if len(files) > s.maxFiles {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "too many files").
			WithDetails(map[string]any{"max_files": s.maxFiles})
	}

	stored := make([]StoredUpload, 0, len(files))
	rejected := make([]RejectedFile, 0)

	for _, file := range files {
		result, reason := s.storeOne(ctx, ownerID, file)
		if reason != "" {
			rejected = append(rejected, RejectedFile{Filename: file.Filename, Reason: reason})
			continue
		}
		stored = append(stored, *result)
	}

	if len(stored) == 0 {
		return nil, rejected, pkgerrors.New(pkgerrors.CodeValidation, "no acceptable files").
			WithDetails(map[string]any{"rejected": rejected})
	}
	return stored, rejected, nil
}

func (s *intakeService) storeOne(ctx context.Context, ownerID uuid.UUID, file FileInput) (*StoredUpload, string) {
	kind, ok := enums.KindForContentType(file.ContentType)
	if !ok {
		return nil, fmt.Sprintf("unsupported content type %q", file.ContentType)
	}
	if ceiling := s.ceilings[kind]; ceiling > 0 && file.Size > ceiling {
		return nil, fmt.Sprintf("%s exceeds %d byte limit", kind, ceiling)
	}
	if file.Content == nil {
		return nil, "empty file body"
	}

	storedPath := buildStoredPath(kind, file.Filename)

	if _, err := s.files.Save(storedPath, io.LimitReader(file.Content, s.ceilings[kind])); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "path", storedPath), "failed to persist uploaded file", err)
		return nil, "could not store file"
	}

	record, err := s.repo.Create(ctx, &models.UploadRecord{
		Path:    storedPath,
		Kind:    kind,
		Used:    false,
		OwnerID: ownerID,
	})
	if err != nil {
		// The file must not outlive a failed record insert.
		if rmErr := s.files.Remove(storedPath); rmErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "path", storedPath), "failed to remove file after record insert failure")
		}
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeConflict {
			return nil, "path collision"
		}
		s.logg.Error(ctx, "failed to create upload record", err)
		return nil, "could not record file"
	}

	return &StoredUpload{ID: record.ID, Path: record.Path, Kind: record.Kind}, ""
}

func buildStoredPath(kind enums.UploadKind, original string) string {
	ext := strings.ToLower(path.Ext(original))
	name := uuid.NewString() + ext
	switch kind {
	case enums.UploadKindVideo:
		return "/uploads/videos/" + name
	default:
		return "/uploads/images/" + name
	}
}
