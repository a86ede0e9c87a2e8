// Package auth verifies credentials against stored bcrypt hashes and issues
// signed, time-limited session tokens.
package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"

	"github.com/cedar-analytics/traffic-cli/internal/model"
)

// ErrInvalidCredentials is returned for unknown users and bad passwords
// alike; callers never learn which check failed.
var ErrInvalidCredentials = eris.New("invalid credentials")

// ErrInvalidToken is returned for malformed, badly signed, and expired
// tokens alike.
var ErrInvalidToken = eris.New("invalid token")

// CredentialSource looks up stored credentials. The store satisfies this.
type CredentialSource interface {
	GetUserByUsername(ctx context.Context, username string) (*model.UserCredential, error)
}

// Claims is the session token payload: subject id + username, issuance and
// expiry. Tokens are stateless; validity is signature + expiry only.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and validates session tokens.
type Service struct {
	secret     []byte
	ttl        time.Duration
	bcryptCost int
}

// NewService creates an auth Service. ttl is the absolute token lifetime.
func NewService(secret string, ttl time.Duration, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{secret: []byte(secret), ttl: ttl, bcryptCost: bcryptCost}
}

// HashPassword bcrypt-hashes a plaintext password for provisioning.
func (s *Service) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.bcryptCost)
	if err != nil {
		return "", eris.Wrap(err, "auth: hash password")
	}
	return string(hash), nil
}

// Login checks the credential and returns a signed session token.
// Unknown user and wrong password both fail with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, users CredentialSource, username, password string) (string, error) {
	u, err := users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", eris.Wrap(err, "auth: look up user")
	}
	if u == nil {
		return "", ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(model.Principal{ID: u.ID, Username: u.Username})
}

// IssueToken signs a token binding the principal with an absolute expiry.
func (s *Service) IssueToken(p model.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", eris.Wrap(err, "auth: sign token")
	}
	return signed, nil
}

// Authenticate verifies signature and expiry and returns the principal.
// All failures collapse to ErrInvalidToken.
func (s *Service) Authenticate(tokenStr string) (*model.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, eris.New("unexpected signing method")
			}
			return s.secret, nil
		},
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &model.Principal{ID: id, Username: claims.Username}, nil
}
