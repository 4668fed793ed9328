package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// notAuthorized is the backend's message for a missing or bad token.
const notAuthorized = "Not authorized"

// JWTAuth rejects requests without a valid HS256 bearer token signed with
// secret. The backend answers 401 with {"message": "Not authorized"}.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				writeMessage(w, http.StatusUnauthorized, notAuthorized)
				return
			}
			if _, err := ParseToken(secret, auth[len(prefix):]); err != nil {
				writeMessage(w, http.StatusUnauthorized, notAuthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ParseToken verifies token against secret and returns the user id it
// carries in its "id" claim.
func ParseToken(secret, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token claims")
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("token has no id claim")
	}
	return id, nil
}

// MintToken signs a token for userID that expires after ttl.
func MintToken(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("a signing secret is required")
	}
	if userID == "" {
		return "", errors.New("a user id is required")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}
