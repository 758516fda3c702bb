package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"stakeport/pkg/domain"
	"stakeport/pkg/requestcontext"
)

// CallerValidator validates a bearer token and returns the caller's protocol
// address. Wallets and keepers authenticate with a JWT whose subject is their
// address; the gateway issuing those tokens is outside this core.
type CallerValidator interface {
	ValidateToken(tokenString string) (domain.Address, error)
}

// JWTCallerValidator validates HS256 tokens signed with a shared key.
type JWTCallerValidator struct {
	signingKey []byte
}

func NewJWTCallerValidator(signingKey string) *JWTCallerValidator {
	return &JWTCallerValidator{signingKey: []byte(signingKey)}
}

func (v *JWTCallerValidator) ValidateToken(tokenString string) (domain.Address, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token missing subject")
	}
	addr, err := domain.ParseAddress(sub)
	if err != nil {
		return "", fmt.Errorf("token subject is not an address: %w", err)
	}
	return addr, nil
}

// writeJSONError writes a JSON error response with the given status code.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireCaller validates the bearer token and injects the caller address
// into the request context. Mutating routes sit behind this; query routes do
// not.
func RequireCaller(validator CallerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				writeJSONError(w, http.StatusUnauthorized, "invalid_token", "missing bearer token")
				return
			}

			addr, err := validator.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				logger.WarnContext(r.Context(), "caller token rejected", "error", err.Error())
				writeJSONError(w, http.StatusUnauthorized, "invalid_token", "token validation failed")
				return
			}

			ctx := requestcontext.WithCaller(r.Context(), addr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
