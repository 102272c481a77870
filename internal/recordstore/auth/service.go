package auth

import (
	"context"

	"github.com/smallbiznis/invoicedesk/internal/config"
	"github.com/smallbiznis/invoicedesk/internal/recordstore/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Issuer *Issuer
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   domain.Repository
	issuer *Issuer
}

func NewService(p Params) domain.AuthService {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("recordstore.auth"),
		repo:   p.Repo,
		issuer: p.Issuer,
	}
}

func ProvideIssuer(cfg config.Config) (*Issuer, error) {
	return NewIssuer(cfg.AuthJWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

// Login issues a token pair. Only superusers may sign in.
func (s *Service) Login(ctx context.Context, username, password string) (domain.TokenPair, error) {
	user, err := s.repo.FindUserByUsername(ctx, s.db, username)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if user == nil || !VerifyPassword(password, user.PasswordHash) {
		s.log.Info("login rejected", zap.String("username", username))
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}
	if !user.IsSuperuser {
		s.log.Info("login rejected: not a superuser", zap.String("username", username))
		return domain.TokenPair{}, domain.ErrNotSuperuser
	}
	return s.issuer.Issue(user)
}

// Refresh trades a refresh token for a new access token. The user must
// still exist and still be a superuser.
func (s *Service) Refresh(ctx context.Context, refresh string) (domain.TokenPair, error) {
	claims, err := s.issuer.Parse(refresh, tokenTypeRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}
	user, err := s.repo.FindUserByUsername(ctx, s.db, claims.Username)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if user == nil || !user.IsSuperuser {
		return domain.TokenPair{}, domain.ErrInvalidToken
	}
	access, exp, err := s.issuer.IssueAccess(user)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{Access: access, AccessExpiresAt: exp}, nil
}

func (s *Service) Authenticate(_ context.Context, access string) (*domain.Principal, error) {
	claims, err := s.issuer.Parse(access, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &domain.Principal{UserID: claims.Subject, Username: claims.Username}, nil
}
