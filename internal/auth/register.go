package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javokhirdev/newsline-backend/pkg/config"
	"github.com/javokhirdev/newsline-backend/pkg/enums"
	pkgerrors "github.com/javokhirdev/newsline-backend/pkg/errors"
	"github.com/javokhirdev/newsline-backend/pkg/security"

	"github.com/javokhirdev/newsline-backend/internal/users"
)

// RegisterService creates new accounts. Admin signup is guarded by a
// shared registration key so it can never be reached with user credentials
// alone.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	AdminRegister(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterParams bundles the dependencies for the registration service.
type RegisterParams struct {
	DB       txRunner
	Password config.PasswordConfig
	Admin    config.AdminConfig
}

type registerService struct {
	db       txRunner
	password config.PasswordConfig
	admin    config.AdminConfig
}

// NewRegisterService builds a registration service.
func NewRegisterService(params RegisterParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	return &registerService{
		db:       params.DB,
		password: params.Password,
		admin:    params.Admin,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	return s.create(ctx, req, enums.UserRoleUser)
}

func (s *registerService) AdminRegister(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error) {
	if s.admin.RegistrationKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin registration is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(req.RegistrationKey), []byte(s.admin.RegistrationKey)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "invalid registration key")
	}
	return s.create(ctx, req.RegisterRequest, enums.UserRoleAdmin)
}

func (s *registerService) create(ctx context.Context, req RegisterRequest, role enums.UserRole) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(req.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := users.NewRepository(tx)
		user, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: hash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Role:         role,
		})
		if err != nil {
			return err
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return created, nil
}
