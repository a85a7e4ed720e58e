package middleware

import (
	"context"
	"net/http"
	"strings"

	"village-chat/internal/observability"
)

type contextKey string

const ParticipantIDKey contextKey = "participant_id"

// TokenVerifier validates a bearer token and returns the participant id
// it was issued for.
type TokenVerifier func(token string) (string, error)

// Auth authenticates requests with a bearer token. WebSocket upgrade
// requests cannot set headers from browsers, so a token query parameter
// is accepted as a fallback.
func Auth(verify TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				http.Error(w, `{"error":"Not authenticated"}`, http.StatusUnauthorized)
				return
			}

			participantID, err := verify(token)
			if err != nil {
				http.Error(w, `{"error":"Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ParticipantIDKey, participantID)
			ctx = observability.WithParticipantID(ctx, participantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func GetParticipantID(ctx context.Context) (string, bool) {
	participantID, ok := ctx.Value(ParticipantIDKey).(string)
	return participantID, ok
}

func WithParticipantID(ctx context.Context, participantID string) context.Context {
	return context.WithValue(ctx, ParticipantIDKey, participantID)
}
