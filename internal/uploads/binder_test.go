package uploads

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/javokhirdev/newsline-backend/pkg/db/models"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type stubClaimRepo struct {
	records  map[string]*models.UploadRecord
	released []string
}

func newStubClaimRepo() *stubClaimRepo {
	return &stubClaimRepo{records: make(map[string]*models.UploadRecord)}
}

func (s *stubClaimRepo) add(path string, kind enums.UploadKind, owner uuid.UUID, used bool) {
	s.records[path] = &models.UploadRecord{
		ID:      uuid.New(),
		Path:    path,
		Kind:    kind,
		Used:    used,
		OwnerID: owner,
	}
}

func (s *stubClaimRepo) ClaimByPath(ctx context.Context, tx *gorm.DB, path string) (*models.UploadRecord, error) {
	record, ok := s.records[path]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "upload record not found")
	}
	if record.Used {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "upload already claimed")
	}
	record.Used = true
	return record, nil
}

func (s *stubClaimRepo) ReleaseByPath(ctx context.Context, tx *gorm.DB, path string) error {
	if record, ok := s.records[path]; ok {
		record.Used = false
	}
	s.released = append(s.released, path)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: &bytes.Buffer{}})
}

func testTx() *gorm.DB {
	// The stub repo ignores the transaction handle.
	return &gorm.DB{}
}

func TestBindAcceptsOwnedUnusedPaths(t *testing.T) {
	repo := newStubClaimRepo()
	owner := uuid.New()
	repo.add("/uploads/images/a.png", enums.UploadKindImage, owner, false)
	repo.add("/uploads/videos/b.mp4", enums.UploadKindVideo, owner, false)

	b, err := NewBinder(repo, testLogger())
	if err != nil {
		t.Fatalf("new binder: %v", err)
	}

	accepted, rejected, err := b.Bind(context.Background(), testTx(), owner, []string{
		"/uploads/images/a.png",
		"/uploads/videos/b.mp4",
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted, got %d", len(accepted))
	}
	if len(rejected) != 0 {
		t.Fatalf("expected no rejects, got %v", rejected)
	}
	if accepted[0].Kind != enums.UploadKindImage || accepted[1].Kind != enums.UploadKindVideo {
		t.Fatalf("kinds not carried through: %+v", accepted)
	}
	if !repo.records["/uploads/images/a.png"].Used {
		t.Fatal("accepted record should be used")
	}
}

func TestBindRejectsUnknownPathsWithoutFailing(t *testing.T) {
	repo := newStubClaimRepo()
	owner := uuid.New()
	repo.add("/uploads/images/a.png", enums.UploadKindImage, owner, false)

	b, _ := NewBinder(repo, testLogger())
	accepted, rejected, err := b.Bind(context.Background(), testTx(), owner, []string{
		"/uploads/images/a.png",
		"/no/such/path",
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(accepted) != 1 {
		t.Fatalf("expected 1 accepted, got %d", len(accepted))
	}
	if len(rejected) != 1 || rejected[0] != "/no/such/path" {
		t.Fatalf("expected unknown path rejected, got %v", rejected)
	}
}

func TestBindRejectsAlreadyClaimedPaths(t *testing.T) {
	repo := newStubClaimRepo()
	owner := uuid.New()
	repo.add("/uploads/images/a.png", enums.UploadKindImage, owner, false)
	repo.add("/uploads/images/taken.png", enums.UploadKindImage, owner, true)

	b, _ := NewBinder(repo, testLogger())
	accepted, rejected, err := b.Bind(context.Background(), testTx(), owner, []string{
		"/uploads/images/a.png",
		"/uploads/images/taken.png",
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(accepted) != 1 || len(rejected) != 1 {
		t.Fatalf("expected 1 accepted / 1 rejected, got %d/%d", len(accepted), len(rejected))
	}
	if rejected[0] != "/uploads/images/taken.png" {
		t.Fatalf("unexpected reject %v", rejected)
	}
}

func TestBindRejectsForeignUploadsAndReleasesClaim(t *testing.T) {
	repo := newStubClaimRepo()
	owner := uuid.New()
	stranger := uuid.New()
	repo.add("/uploads/images/mine.png", enums.UploadKindImage, owner, false)
	repo.add("/uploads/images/theirs.png", enums.UploadKindImage, stranger, false)

	b, _ := NewBinder(repo, testLogger())
	accepted, rejected, err := b.Bind(context.Background(), testTx(), owner, []string{
		"/uploads/images/mine.png",
		"/uploads/images/theirs.png",
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(accepted) != 1 || accepted[0].Path != "/uploads/images/mine.png" {
		t.Fatalf("expected only owned path accepted, got %+v", accepted)
	}
	if len(rejected) != 1 || rejected[0] != "/uploads/images/theirs.png" {
		t.Fatalf("expected foreign path rejected, got %v", rejected)
	}
	if repo.records["/uploads/images/theirs.png"].Used {
		t.Fatal("foreign record must be released after the aborted claim")
	}
}

func TestBindFailsWhenNothingAccepted(t *testing.T) {
	repo := newStubClaimRepo()
	b, _ := NewBinder(repo, testLogger())

	_, rejected, err := b.Bind(context.Background(), testTx(), uuid.New(), []string{"/missing/a", "/missing/b"})
	if err == nil {
		t.Fatal("expected error when nothing accepted")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(rejected) != 2 {
		t.Fatalf("expected both paths rejected, got %v", rejected)
	}
}

func TestBindSkipsDuplicateAndBlankPaths(t *testing.T) {
	repo := newStubClaimRepo()
	owner := uuid.New()
	repo.add("/uploads/images/a.png", enums.UploadKindImage, owner, false)

	b, _ := NewBinder(repo, testLogger())
	accepted, rejected, err := b.Bind(context.Background(), testTx(), owner, []string{
		"/uploads/images/a.png",
		"/uploads/images/a.png",
		"   ",
		"",
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(accepted) != 1 || len(rejected) != 0 {
		t.Fatalf("expected single accept, got %d/%d", len(accepted), len(rejected))
	}
}
