package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tapas-app/tapas-backend/pkg/auth/jwt"
	"github.com/tapas-app/tapas-backend/pkg/communication"
)

// AuthenticationMiddleware checks if the user login token is valid and responds with an error if it's not the case
type AuthenticationMiddleware struct {
	ResponseManager *communication.ResponseManager
	Secret          string
}

type key string

const (
	// KeyUserID the key for the request variable for getting the user id
	KeyUserID key = "userID"
)

// WithUserID stores the authenticated user id in a context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, KeyUserID, userID)
}

// Middleware gets called when a request needs to be authenticated
func (m *AuthenticationMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, r *http.Request) {
		extractedToken, err := extractTokenStringFromHeader(r)
		if err != nil {
			m.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, "No authorization", err)
			return
		}

		token, err := jwt.Verify(extractedToken, jwt.TokenTypeAccess, m.Secret, jwt.AlgHS256, jwt.Claims{})
		if err != nil {
			m.ResponseManager.RespondWithError(writer, http.StatusUnauthorized, "Token invalid", err)
			return
		}

		next.ServeHTTP(writer, r.WithContext(WithUserID(r.Context(), token.Payload.Subject)))
	})
}

func extractTokenStringFromHeader(r *http.Request) (string, error) {
	nonformatted := r.Header.Get("Authorization")
	if strings.TrimSpace(nonformatted) == "" {
		return "", errors.New("no authorization token specified")
	}

	tokenParts := strings.Fields(nonformatted)
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", errors.New("token must be a bearer token")
	}

	return tokenParts[1], nil
}
