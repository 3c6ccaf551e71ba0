package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/hms-api/internal/models"
	"github.com/noah-isme/hms-api/pkg/config"
	appErrors "github.com/noah-isme/hms-api/pkg/errors"
)

// TokenService signs and verifies purpose bound HS256 tokens. Verification
// depends only on the token string and the clock.
type TokenService struct {
	secret []byte
	issuer string
	ttls   map[models.TokenPurpose]time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewTokenService constructs a TokenService from the JWT settings.
func NewTokenService(cfg config.JWTConfig, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttls: map[models.TokenPurpose]time.Duration{
			models.PurposeSetup:   cfg.SetupTTL,
			models.PurposeReset:   cfg.ResetTTL,
			models.PurposeSession: cfg.SessionTTL,
		},
		now:    time.Now,
		logger: logger,
	}
}

// TTL returns the lifetime of tokens issued for purpose.
func (s *TokenService) TTL(purpose models.TokenPurpose) time.Duration {
	return s.ttls[purpose]
}

// Issue signs a token for userID valid for the lifetime of purpose.
func (s *TokenService) Issue(userID string, purpose models.TokenPurpose) (string, time.Time, error) {
	ttl, ok := s.ttls[purpose]
	if !ok || ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("no lifetime configured for %q tokens", purpose)
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(ttl)
	claims := &models.TokenClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses the token and checks it was issued for one of the given
// purposes. Every failure yields the same error.
func (s *TokenService) Verify(tokenString string, purposes ...models.TokenPurpose) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, invalidToken(err)
	}
	if claims.Subject == "" {
		return nil, invalidToken(errors.New("token has no subject"))
	}
	if len(purposes) > 0 && !hasPurpose(purposes, claims.Purpose) {
		s.logger.Debug("token purpose mismatch", zap.String("purpose", string(claims.Purpose)))
		return nil, invalidToken(fmt.Errorf("unexpected purpose %q", claims.Purpose))
	}
	return claims, nil
}

func hasPurpose(allowed []models.TokenPurpose, purpose models.TokenPurpose) bool {
	for _, p := range allowed {
		if p == purpose {
			return true
		}
	}
	return false
}

func invalidToken(cause error) error {
	return appErrors.Wrap(cause, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, appErrors.ErrInvalidToken.Message)
}
