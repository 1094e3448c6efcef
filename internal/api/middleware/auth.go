package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/heritagepool/poolops/internal/api"
)

type contextKey string

const CallerKey contextKey = "caller"

// ErrInvalidAPIKey is returned for unknown keys.
var ErrInvalidAPIKey = errors.New("invalid api key")

// AuthValidator checks an API key and returns the caller identity it belongs
// to.
type AuthValidator interface {
	ValidateAPIKey(ctx context.Context, token string) (string, error)
}

// StaticKeyValidator validates against a configured key set. Keys map to a
// caller identity label, used for logging.
type StaticKeyValidator struct {
	keys map[string]string
}

// NewStaticKeyValidator builds a validator from "key:identity" pairs; a bare
// key gets the identity "default".
func NewStaticKeyValidator(pairs []string) *StaticKeyValidator {
	keys := make(map[string]string, len(pairs))
	for _, p := range pairs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key, identity, found := strings.Cut(p, ":")
		if !found || identity == "" {
			identity = "default"
		}
		keys[key] = identity
	}
	return &StaticKeyValidator{keys: keys}
}

func (v *StaticKeyValidator) ValidateAPIKey(_ context.Context, token string) (string, error) {
	for key, identity := range v.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			return identity, nil
		}
	}
	return "", ErrInvalidAPIKey
}

// APIKeyAuth guards routes behind Bearer-token API keys.
func APIKeyAuth(validator AuthValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			identity, err := validator.ValidateAPIKey(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCallerIdentity returns the identity set by APIKeyAuth, or empty.
func GetCallerIdentity(ctx context.Context) string {
	identity, _ := ctx.Value(CallerKey).(string)
	return identity
}
