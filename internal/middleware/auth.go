package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer — значение iss в токенах локального API.
const Issuer = "otpkeeperd"

type ctxKey int

const tokenIDKey ctxKey = iota

// IssueToken выпускает bearer-токен (HS256) со случайным jti.
func IssueToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken проверяет подпись, срок действия и издателя токена и возвращает его jti.
func ParseToken(token, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// WithAuth пропускает только запросы с валидным заголовком Authorization: Bearer <jwt>.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				unauthorized(w)
				return
			}
			id, err := ParseToken(strings.TrimSpace(raw), secret)
			if err != nil {
				sugar.Warnw("rejected api token", "error", err)
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), tokenIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenIDFromContext возвращает jti токена текущего запроса.
func TokenIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tokenIDKey).(string)
	return id, ok && id != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="otpkeeper"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
