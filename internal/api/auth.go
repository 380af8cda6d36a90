package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "userID"

// userMiddleware parses {userID} and, when a JWT secret is configured,
// requires a bearer token whose subject is that user.
func (s *Server) userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil || userID == uuid.Nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		if len(s.jwtSecret) > 0 {
			sub, status, msg := s.subject(r)
			if status != 0 {
				writeError(w, status, msg)
				return
			}
			if sub != userID.String() {
				writeError(w, http.StatusForbidden, "token does not belong to this user")
				return
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// subject validates the bearer token and returns its sub claim.
// A non-zero status reports why the token was refused.
func (s *Server) subject(r *http.Request) (string, int, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", http.StatusUnauthorized, "missing authorization header"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", http.StatusUnauthorized, "invalid authorization header format"
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", http.StatusUnauthorized, "invalid or expired token"
	}
	if claims.Subject == "" {
		return "", http.StatusUnauthorized, "token has no subject"
	}
	return claims.Subject, 0, ""
}

// userFrom returns the user id set by userMiddleware.
func userFrom(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(userIDKey).(uuid.UUID)
	return id
}
