/*
auth.go - Login and bearer-token middleware

PURPOSE:
  The login gate is binary: a small fixed set of users from configuration,
  checked with bcrypt, rewarded with a short-lived HS256 JWT. Every /api
  route except /api/login sits behind the bearer middleware.

  There are no roles. Anyone who can log in can do everything; the nucleo
  secretary and the stock keeper share the same capabilities.
*/
package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Auth holds the credential table and token settings.
type Auth struct {
	secret    []byte
	tokenTTL  time.Duration
	users     map[string][]byte // username -> bcrypt hash
	dummyHash []byte
}

// NewAuth builds the auth gate from plaintext credentials, hashing them
// immediately so the plaintext never outlives startup.
func NewAuth(secret string, tokenTTL time.Duration, credentials map[string]string) (*Auth, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: empty JWT secret")
	}
	users := make(map[string][]byte, len(credentials))
	for username, password := range credentials {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hashing password for %s: %w", username, err)
		}
		users[username] = hash
	}
	// Compared against on unknown usernames so they cost the same as a
	// wrong password.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("-"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &Auth{secret: []byte(secret), tokenTTL: tokenTTL, users: users, dummyHash: dummyHash}, nil
}

type authClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Login checks the credentials and returns a signed token.
func (a *Auth) Login(username, password string) (string, error) {
	hash, ok := a.users[username]
	if !ok {
		bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	now := time.Now()
	claims := authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses the token and returns the username.
func (a *Auth) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*authClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid claims")
	}
	return claims.Username, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header required", nil)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Expected: Bearer <token>", nil)
			return
		}
		if _, err := a.Verify(strings.TrimSpace(parts[1])); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
