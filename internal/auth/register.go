package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

const minPasswordLength = 8

// CreateAccountRequest contains what the admin CLI collects for a new account.
type CreateAccountRequest struct {
	PhoneNumber string
	Password    string
	Email       string
	FirstName   string
	LastName    string
}

type accountCreator interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// AccountService provisions accounts. Accounts are created administratively.
type AccountService struct {
	users       accountCreator
	passwordCfg config.PasswordConfig
}

func NewAccountService(repo accountCreator, passwordCfg config.PasswordConfig) *AccountService {
	return &AccountService{users: repo, passwordCfg: passwordCfg}
}

// CreateAccount hashes the password and persists the account.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*users.UserDTO, error) {
	phone := users.NormalizePhone(req.PhoneNumber)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	if len(phone) > 15 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number must be at most 15 characters")
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		PhoneNumber:  phone,
		PasswordHash: hash,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "phone number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return users.FromModel(user), nil
}
