package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/users"
	pkgAuth "github.com/angelmondragon/stockroom-backend/pkg/auth"
	"github.com/angelmondragon/stockroom-backend/pkg/auth/session"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    1024,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "stockroom",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 60,
	}
}

func TestServiceLoginIssuesTokenBoundToSession(t *testing.T) {
	password := "owner-secret"
	user := newUser(t, "5550100", password)
	cfg := testJWTConfig()

	svc, sessions := buildTestService(t, user, cfg)

	resp, err := svc.Login(context.Background(), LoginRequest{PhoneNumber: " 555 0100", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.Access)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %s, got %s", user.ID, claims.UserID)
	}
	if claims.ID != sessions.started {
		t.Fatalf("expected jti %q to match session %q", claims.ID, sessions.started)
	}
	if resp.Refresh != "refresh-1" {
		t.Fatalf("unexpected refresh token %q", resp.Refresh)
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := newUser(t, "5550101", "right-password")
	svc, _ := buildTestService(t, user, testJWTConfig())

	cases := []LoginRequest{
		{PhoneNumber: "5550101", Password: "wrong-password"},
		{PhoneNumber: "0000000", Password: "right-password"},
		{PhoneNumber: "", Password: "right-password"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestServiceLoginRejectsInactiveAccount(t *testing.T) {
	user := newUser(t, "5550102", "password-1")
	user.IsActive = false
	svc, _ := buildTestService(t, user, testJWTConfig())

	_, err := svc.Login(context.Background(), LoginRequest{PhoneNumber: "5550102", Password: "password-1"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceRefreshAcceptsExpiredAccessToken(t *testing.T) {
	user := newUser(t, "5550103", "password-1")
	cfg := testJWTConfig()
	svc, sessions := buildTestService(t, user, cfg)

	issuedAt := time.Now().Add(-2 * time.Hour)
	expired, err := pkgAuth.MintAccessToken(cfg, issuedAt, pkgAuth.AccessTokenPayload{UserID: user.ID, JTI: "old-session"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), expired, "refresh-old")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sessions.rotatedFrom != "old-session" {
		t.Fatalf("expected rotation of old-session, got %q", sessions.rotatedFrom)
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, pair.Access)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if claims.ID != "rotated" {
		t.Fatalf("expected new jti, got %q", claims.ID)
	}
}

func TestServiceRefreshRejectsInvalidRefreshToken(t *testing.T) {
	user := newUser(t, "5550104", "password-1")
	cfg := testJWTConfig()
	svc, sessions := buildTestService(t, user, cfg)
	sessions.rotateErr = session.ErrInvalidRefreshToken

	access, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{UserID: user.ID, JTI: "sess"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	_, err = svc.Refresh(context.Background(), access, "nope")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, err = svc.Refresh(context.Background(), "not-a-jwt", "nope")
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for garbage token, got %v", err)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	user := newUser(t, "5550105", "password-1")
	svc, sessions := buildTestService(t, user, testJWTConfig())

	if err := svc.Logout(context.Background(), "sess-9"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.revoked != "sess-9" {
		t.Fatalf("expected sess-9 revoked, got %q", sessions.revoked)
	}
	if err := svc.Logout(context.Background(), " "); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank session, got %v", err)
	}
}

func TestAccountServiceCreateAccount(t *testing.T) {
	repo := &stubUserRepo{}
	svc := NewAccountService(repo, testPasswordCfg)

	dto, err := svc.CreateAccount(context.Background(), CreateAccountRequest{PhoneNumber: "555 0106", Password: "long-enough"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if dto.PhoneNumber != "5550106" {
		t.Fatalf("expected normalized phone, got %q", dto.PhoneNumber)
	}
	ok, err := security.VerifyPassword("long-enough", repo.user.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify: ok=%v err=%v", ok, err)
	}

	if _, err := svc.CreateAccount(context.Background(), CreateAccountRequest{PhoneNumber: "5550107", Password: "short"}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}
}

func TestServiceLoginUpgradesStaleHash(t *testing.T) {
	password := "owner-secret"
	user := newUser(t, "5550108", password)
	repo := &stubUserRepo{user: user}
	stronger := testPasswordCfg
	stronger.ArgonTime = 2

	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{},
		JWTConfig:      testJWTConfig(),
		Password:       stronger,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{PhoneNumber: "5550108", Password: password}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.rehashed != 1 {
		t.Fatalf("expected one rehash, got %d", repo.rehashed)
	}
	if security.NeedsRehash(user.PasswordHash, stronger) {
		t.Fatal("stored hash should match the new cost")
	}

	if _, err := svc.Login(context.Background(), LoginRequest{PhoneNumber: "5550108", Password: password}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if repo.rehashed != 1 {
		t.Fatalf("expected no further rehash, got %d", repo.rehashed)
	}
}

func buildTestService(t *testing.T, user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       &stubUserRepo{user: user},
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
		Password:       testPasswordCfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

func newUser(t *testing.T, phone, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		PhoneNumber:  phone,
		PasswordHash: hash,
		IsActive:     true,
	}
}

type stubUserRepo struct {
	user     *models.User
	rehashed int
}

func (s *stubUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	if s.user == nil || s.user.PhoneNumber != phone {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, rehash string) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
		if rehash != "" {
			s.user.PasswordHash = rehash
			s.rehashed++
		}
	}
	return nil
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	s.user = dto.ToModel()
	s.user.ID = uuid.New()
	return s.user, nil
}

type stubSessionManager struct {
	started     string
	rotatedFrom string
	revoked     string
	rotateErr   error
}

func (s *stubSessionManager) Start(ctx context.Context, userID uuid.UUID) (session.Session, error) {
	s.started = "session-" + userID.String()[:8]
	return session.Session{AccessID: s.started, RefreshToken: "refresh-1"}, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (session.Session, error) {
	if s.rotateErr != nil {
		return session.Session{}, s.rotateErr
	}
	s.rotatedFrom = oldAccessID
	return session.Session{AccessID: "rotated", RefreshToken: "refresh-2"}, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = accessID
	return nil
}
