package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// tokenBytes gives 256 bits of entropy per token.
	tokenBytes = 32
	// MaxTokenTTLSeconds bounds a requested lifetime in either direction,
	// well inside the range of time.Duration.
	MaxTokenTTLSeconds = 10 * 365 * 24 * 60 * 60
)

type TokenServiceOptions struct {
	DefaultTTL time.Duration
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// TokenService issues and validates bearer tokens scoped to one asset.
type TokenService struct {
	repo       repositories.AssetRepository
	defaultTTL time.Duration
	logger     logrus.FieldLogger
	now        func() time.Time
}

func NewTokenService(repo repositories.AssetRepository, opts TokenServiceOptions) *TokenService {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &TokenService{
		repo:       repo,
		defaultTTL: opts.DefaultTTL,
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// DefaultTTLSeconds is used when a caller does not ask for a lifetime.
func (s *TokenService) DefaultTTLSeconds() int {
	return int(s.defaultTTL / time.Second)
}

// IssueToken creates a token for assetID that expires ttlSeconds from now.
// A negative ttl yields a token that is already expired. A ttl beyond
// MaxTokenTTLSeconds in either direction returns ErrInvalidTTL.
func (s *TokenService) IssueToken(ctx context.Context, assetID string, ttlSeconds int) (*models.AccessToken, error) {
	if ttlSeconds > MaxTokenTTLSeconds || ttlSeconds < -MaxTokenTTLSeconds {
		return nil, ErrInvalidTTL
	}
	asset, err := s.repo.GetAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}

	value, err := generateToken()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	token := &models.AccessToken{
		ID:        uuid.NewString(),
		Token:     value,
		AssetID:   asset.ID,
		ExpiresAt: now.Add(time.Duration(ttlSeconds) * time.Second),
		CreatedAt: now,
	}
	if err := s.repo.CreateToken(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ValidateToken returns the asset the token is scoped to. Every failure
// reason collapses into ErrInvalidToken.
func (s *TokenService) ValidateToken(ctx context.Context, value string) (*models.Asset, error) {
	if value == "" {
		return nil, ErrInvalidToken
	}
	token, err := s.repo.GetTokenByValue(ctx, value)
	if err != nil {
		return nil, err
	}
	if token == nil || token.Asset == nil || !token.IsValid(s.now()) {
		return nil, ErrInvalidToken
	}
	return token.Asset, nil
}

// Authorize checks that value is a valid token for assetID.
func (s *TokenService) Authorize(ctx context.Context, value, assetID string) error {
	asset, err := s.ValidateToken(ctx, value)
	if err != nil {
		return err
	}
	if asset.ID != assetID {
		return ErrInvalidToken
	}
	return nil
}

func (s *TokenService) RevokeToken(ctx context.Context, value string) error {
	ok, err := s.repo.RevokeToken(ctx, value)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	return nil
}

// SweepTokens deletes tokens that are expired or revoked.
func (s *TokenService) SweepTokens(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredTokens(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{"action": "sweep_tokens", "deleted": n}).Info("access tokens swept")
	return n, nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
