// Package auth guards the admin surface. Operators log in with a
// single configured credential pair and receive a short-lived HS256
// access token for the policy management endpoints.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-chaldduck/internal/common"
)

const minSecretLength = 32

// Config carries the settings needed to verify the admin credential
// and mint access tokens.
type Config struct {
	AdminUsername     string
	AdminPasswordHash string
	Secret            string
	Issuer            string
	Audience          string
	AccessTTL         time.Duration
	ClockSkew         time.Duration
}

// Service authenticates the admin operator and issues access tokens.
type Service struct {
	username     string
	passwordHash string
	secret       []byte
	issuer       string
	audience     string
	accessTTL    time.Duration
	clockSkew    time.Duration
	signer       jwa.SignatureAlgorithm
	validator    TokenValidator
	now          func() time.Time
}

// Session is an issued admin access token with its expiry.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// NewService validates the configuration and builds the service.
func NewService(cfg Config) (*Service, error) {
	if cfg.AdminUsername == "" {
		return nil, errors.New("auth: admin username is required")
	}
	if !strings.HasPrefix(cfg.AdminPasswordHash, "$argon2id$") {
		return nil, errors.New("auth: admin password hash must be an argon2id hash")
	}
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("auth: secret must be at least %d bytes", minSecretLength)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.ClockSkew < 0 {
		cfg.ClockSkew = 0
	}
	return &Service{
		username:     cfg.AdminUsername,
		passwordHash: cfg.AdminPasswordHash,
		secret:       []byte(cfg.Secret),
		issuer:       cfg.Issuer,
		audience:     cfg.Audience,
		accessTTL:    cfg.AccessTTL,
		clockSkew:    cfg.ClockSkew,
		signer:       jwa.HS256,
		validator: TokenValidator{
			Issuer:    cfg.Issuer,
			Audience:  cfg.Audience,
			ClockSkew: cfg.ClockSkew,
			Algorithm: jwa.HS256,
		},
		now: time.Now,
	}, nil
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies the credential pair and issues an access token. The
// password hash comparison runs even for unknown usernames to keep the
// timing profile uniform.
func (s *Service) Login(username, password string) (Session, error) {
	ok, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
	if err != nil {
		return Session{}, common.NewAppError("INTERNAL", "could not verify credentials", http.StatusInternalServerError, err)
	}
	nameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	if !ok || !nameMatch {
		return Session{}, common.NewAppError("UNAUTHORIZED", "invalid credentials", http.StatusUnauthorized, nil)
	}
	token, expiresAt, err := s.signAccessToken(username)
	if err != nil {
		return Session{}, common.NewAppError("INTERNAL", "could not issue token", http.StatusInternalServerError, err)
	}
	return Session{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// ParseAccessToken verifies a presented token and returns its subject.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}
