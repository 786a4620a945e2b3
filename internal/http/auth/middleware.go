package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey struct{}

var ErrMissingToken = errors.New("missing bearer token")

// Subject returns the token subject stored by Middleware.
func Subject(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(ctxKey{}).(string)
	return sub, ok
}

// Middleware rejects requests without a valid HS256 bearer token signed with
// secret.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearer(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			var claims jwt.RegisteredClaims

			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				slog.Warn("rejected token", "error", err, "path", r.URL.Path)
				http.Error(w, "invalid token", http.StatusUnauthorized)

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Issue signs a token for subject valid for ttl.
func Issue(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	return token.SignedString(secret)
}

func bearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")

	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", ErrMissingToken
	}

	return strings.TrimSpace(raw), nil
}
