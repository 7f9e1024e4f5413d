package contextutil

import "context"

const sessionKey contextKey = "session_id"

// WithSessionID stores the session identifier in the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// SessionIDFromContext extracts the session identifier from context.
// Returns an empty string when no session middleware ran.
func SessionIDFromContext(ctx context.Context) string {
	if v := ctx.Value(sessionKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
