package jwt

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

const (
	issuer     = "go-utang-ledger"
	defaultTTL = 24 * time.Hour
)

var (
	mu     sync.RWMutex
	secret []byte
	ttl    time.Duration
)

// Claims represents the JWT claims structure
type Claims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	TokenVersion string `json:"token_version"`
	jwt.RegisteredClaims
}

// Configure sets the signing secret and token lifetime. Zero values keep
// the environment defaults.
func Configure(key string, lifetime time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if key != "" {
		secret = []byte(key)
	}
	if lifetime > 0 {
		ttl = lifetime
	}
}

// GetSecretKey returns the configured secret, then JWT_SECRET, then a default
func GetSecretKey() []byte {
	mu.RLock()
	defer mu.RUnlock()
	if len(secret) > 0 {
		return secret
	}
	key := os.Getenv("JWT_SECRET")
	if key == "" {
		key = "your-super-secret-key-change-in-production"
	}
	return []byte(key)
}

func tokenTTL() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	if ttl > 0 {
		return ttl
	}
	return defaultTTL
}

// GenerateToken creates a new JWT token for a user
func GenerateToken(userID, email, name, tokenVersion string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       userID,
		Email:        email,
		Name:         name,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetSecretKey())
}

// ValidateToken parses and validates a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return GetSecretKey(), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
