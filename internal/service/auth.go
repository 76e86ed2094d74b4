package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ryanadiyantara/librasys/internal/errs"
	"github.com/ryanadiyantara/librasys/internal/model"
	"github.com/ryanadiyantara/librasys/pkg/auth"
)

const resetTokenTTL = time.Hour

// AuthStore is the slice of the repository the auth flow needs.
//
//go:generate mockgen -source=auth.go -destination=mocks/auth_mock.go -package=mocks
type AuthStore interface {
	GetMemberByEmail(ctx context.Context, email string) (model.Member, error)
	GetMember(ctx context.Context, id int) (model.Member, error)
	SetResetToken(ctx context.Context, id int, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id int) error
	GetMemberByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.Member, error)
	SetPassword(ctx context.Context, id int, passwordHash string) error
}

type AuthService struct {
	repo   AuthStore
	tokens *auth.TokenManager
	mailer Mailer
	cfg    Config
	log    *zap.Logger
}

func NewAuthService(repo AuthStore, tokens *auth.TokenManager, mailer Mailer, cfg Config, log *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		mailer: mailer,
		cfg:    cfg,
		log:    log.Named("auth"),
	}
}

// Login answers Unauthorized uniformly for unknown email, deactivated
// member and wrong password, nothing leaks which check failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	m, err := s.repo.GetMemberByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.LoginResult{}, errs.ErrUnauthorized
		}
		return model.LoginResult{}, err
	}
	if !m.Status {
		return model.LoginResult{}, errs.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) != nil {
		return model.LoginResult{}, errs.ErrUnauthorized
	}

	access, err := s.tokens.NewAccessToken(m.ID, m.Role)
	if err != nil {
		return model.LoginResult{}, errors.Wrap(err, "access token")
	}
	refresh, err := s.tokens.NewRefreshToken(m.ID)
	if err != nil {
		return model.LoginResult{}, errors.Wrap(err, "refresh token")
	}

	return model.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         m.Role,
	}, nil
}

// Refresh resolves the member by the stable internal id embedded in
// the refresh token. A token that fails verification is Forbidden, a
// member that vanished or was deactivated since is Unauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.LoginResult, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return model.LoginResult{}, errs.ErrForbidden
	}

	m, err := s.repo.GetMember(ctx, claims.MemberID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.LoginResult{}, errs.ErrUnauthorized
		}
		return model.LoginResult{}, err
	}
	if !m.Status {
		return model.LoginResult{}, errs.ErrUnauthorized
	}

	access, err := s.tokens.NewAccessToken(m.ID, m.Role)
	if err != nil {
		return model.LoginResult{}, errors.Wrap(err, "access token")
	}
	return model.LoginResult{AccessToken: access, Role: m.Role}, nil
}

func (s *AuthService) RefreshTTL() time.Duration {
	return s.tokens.RefreshTTL()
}

// ForgotPassword stores only the sha256 of the reset token and mails
// the raw one. A failed dispatch rolls the stored hash back so the
// member is not left with a dead reset request.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	m, err := s.repo.GetMemberByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrEmailNotFound
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return errors.Wrap(err, "reset token")
	}
	rawToken := hex.EncodeToString(raw)

	if err := s.repo.SetResetToken(ctx, m.ID, hashResetToken(rawToken), time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	resetURL := s.cfg.BaseURL + "/api/auth/resetpassword?token=" + rawToken
	body := fmt.Sprintf(`<p>Hello,</p>
<p>We received a request to reset your password. Please click the link below to reset your password:</p>
<a href="%s">Reset Password</a>
<p>If you click the reset link, your password will be reset to: %s</p>
<p>If you did not request a password reset, please ignore this email and do not click the reset password link.</p>
<p>Thank you,</p>
<p>librasys</p>`, resetURL, s.cfg.DefaultPassword)

	if err := s.mailer.Send(m.Email, "Password Reset Request", body); err != nil {
		s.log.Error("reset mail dispatch", zap.Error(err))
		if clearErr := s.repo.ClearResetToken(ctx, m.ID); clearErr != nil {
			s.log.Error("reset token rollback", zap.Error(clearErr))
		}
		return errs.ErrMailSend
	}
	return nil
}

// ResetPassword resets to the configured default password when the
// token hash matches and has not expired. Expired or unknown tokens
// never mutate anything.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken string) error {
	m, err := s.repo.GetMemberByResetToken(ctx, hashResetToken(rawToken), time.Now())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrInvalidToken
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.repo.SetPassword(ctx, m.ID, string(hash))
}

func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
