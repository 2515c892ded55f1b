package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vibestempel/stempeld/pkg/cryptox"
	"github.com/vibestempel/stempeld/pkg/slogx"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid session token")
)

const adminSubject = "admin"

// AdminService exchanges the shared static organizer secret for short-lived
// HS256 session tokens. The signing key is random per boot, so sessions do not
// survive restarts; the secret itself is never embedded in a token.
type AdminService struct {
	// Secret is the plaintext shared secret. Ignored when SecretHash is set.
	Secret string
	// SecretHash is an optional Argon2id hash of the secret (PHC format).
	SecretHash string

	Issuer     string
	SessionTTL time.Duration

	signingKey []byte
}

// NewAdminService generates the per-boot signing key.
func NewAdminService(secret, secretHash, issuer string, ttl time.Duration) (*AdminService, error) {
	key, err := cryptox.GenerateToken(32)
	if err != nil {
		return nil, err
	}
	return &AdminService{
		Secret:     secret,
		SecretHash: secretHash,
		Issuer:     issuer,
		SessionTTL: ttl,
		signingKey: []byte(key),
	}, nil
}

// Login verifies the shared secret and mints a session token.
func (s *AdminService) Login(ctx context.Context, secret string) (token string, expiresIn time.Duration, err error) {
	log := slogx.FromContext(ctx)

	if err := s.verifySecret(secret); err != nil {
		log.Warn("admin login rejected")
		return "", 0, ErrUnauthorized
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.SessionTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign admin session", slog.Any("error", err))
		return "", 0, err
	}

	log.Info("admin session minted", slog.Duration("ttl", s.SessionTTL))
	return signed, s.SessionTTL, nil
}

// Verify checks a session token minted by Login.
func (s *AdminService) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.Issuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (s *AdminService) verifySecret(secret string) error {
	if secret == "" {
		return ErrUnauthorized
	}
	if s.SecretHash != "" {
		return cryptox.VerifySecret(secret, s.SecretHash)
	}
	if s.Secret == "" || !cryptox.ConstantTimeEquals(secret, s.Secret) {
		return ErrUnauthorized
	}
	return nil
}
