package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/abduss/goshare/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxSecretLength = 72 // bcrypt limit
	tokenIssuer     = "goshare"
	tokenAudience   = "goshare-api"
	tokenSubject    = "owner"
)

// Service authenticates the single owner of the deployment with a shared secret
// and issues session tokens.
type Service struct {
	secretHash []byte
	cfg        config.AuthConfig
	nowFunc    func() time.Time
	parser     *jwt.Parser
}

// NewService hashes the configured shared secret so the plaintext is not kept in memory.
func NewService(cfg config.AuthConfig) (*Service, error) {
	secret := strings.TrimSpace(cfg.SharedSecret)
	if secret == "" {
		return nil, fmt.Errorf("shared secret is empty")
	}
	if len(secret) > maxSecretLength {
		return nil, fmt.Errorf("shared secret exceeds maximum length of %d bytes", maxSecretLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash shared secret: %w", err)
	}
	cfg.SharedSecret = ""

	return &Service{
		secretHash: hash,
		cfg:        cfg,
		nowFunc:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithAudience(tokenAudience),
		),
	}, nil
}

// Login compares secret with the shared secret and issues a session token.
func (s *Service) Login(secret string) (Session, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" || len(secret) > maxSecretLength {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(secret)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := s.nowFunc()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	return Session{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateToken verifies the signature, issuer, audience and expiry of a session token.
func (s *Service) ValidateToken(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrUnauthorized
	}

	var claims jwt.RegisteredClaims
	parsed, err := s.parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.TokenSecret), nil
	})
	if err != nil || !parsed.Valid || claims.ExpiresAt == nil {
		return Claims{}, ErrUnauthorized
	}
	if claims.ExpiresAt.Time.Before(s.nowFunc()) {
		return Claims{}, ErrUnauthorized
	}

	out := Claims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// CookieName is the name of the session cookie.
func (s *Service) CookieName() string {
	return s.cfg.CookieName
}
