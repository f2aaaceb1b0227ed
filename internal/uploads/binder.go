package uploads

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/internal/authz"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	dbtypes "github.com/javokhirdev/newsline-backend/pkg/db/types"
	"github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
	"gorm.io/gorm"
)

// Binder converts caller-supplied file paths into a validated, claimed
// media set. A path is rejected (not fatal) when it has no upload record,
// is already claimed, or belongs to another account. The call fails only
// when nothing could be accepted.
type Binder interface {
	Bind(ctx context.Context, tx *gorm.DB, requesterID uuid.UUID, paths []string) (dbtypes.MediaRefList, []string, error)
	Release(ctx context.Context, tx *gorm.DB, paths []string) error
}

type claimRepository interface {
	ClaimByPath(ctx context.Context, tx *gorm.DB, path string) (*models.UploadRecord, error)
	ReleaseByPath(ctx context.Context, tx *gorm.DB, path string) error
}

type binder struct {
	repo claimRepository
	logg *logger.Logger
}

// NewBinder constructs the shared binder used by news and profile services.
func NewBinder(repo claimRepository, logg *logger.Logger) (Binder, error) {
	if repo == nil {
		return nil, errors.New(errors.CodeValidation, "upload repository required")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeValidation, "logger required")
	}
	return &binder{repo: repo, logg: logg}, nil
}

func (b *binder) Bind(ctx context.Context, tx *gorm.DB, requesterID uuid.UUID, paths []string) (dbtypes.MediaRefList, []string, error) {
	if requesterID == uuid.Nil {
		return nil, nil, errors.New(errors.CodeValidation, "requester required")
	}
	if tx == nil {
		return nil, nil, errors.New(errors.CodeValidation, "transaction required")
	}

	accepted := make(dbtypes.MediaRefList, 0, len(paths))
	rejected := make([]string, 0)
	seen := make(map[string]struct{}, len(paths))

	for _, raw := range paths {
		path := strings.TrimSpace(raw)
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}

		record, err := b.repo.ClaimByPath(ctx, tx, path)
		if err != nil {
			appErr := errors.As(err)
			if appErr != nil && (appErr.Code() == errors.CodeNotFound || appErr.Code() == errors.CodeConflict) {
				rejected = append(rejected, path)
				continue
			}
			return nil, nil, err
		}
		if !authz.CanBind(requesterID, record.OwnerID) {
			// Undo the claim so a foreign reference never pins the record.
			if relErr := b.repo.ReleaseByPath(ctx, tx, path); relErr != nil {
				return nil, nil, relErr
			}
			rejected = append(rejected, path)
			continue
		}

		accepted = append(accepted, dbtypes.MediaRef{Path: record.Path, Kind: record.Kind})
	}

	if len(accepted) == 0 {
		return nil, rejected, errors.New(errors.CodeValidation, "no valid media files").
			WithDetails(map[string]any{"rejected": rejected})
	}
	return accepted, rejected, nil
}

// Release returns the provided paths to the unused pool. Failures on
// individual paths are logged and skipped so the owning operation never
// fails over a release.
func (b *binder) Release(ctx context.Context, tx *gorm.DB, paths []string) error {
	for _, path := range paths {
		if err := b.repo.ReleaseByPath(ctx, tx, path); err != nil {
			b.logg.Warn(b.logg.WithField(ctx, "path", path), "failed to release upload record")
			continue
		}
	}
	return nil
}
