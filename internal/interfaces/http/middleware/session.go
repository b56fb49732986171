// internal/interfaces/http/middleware/session.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie names the cookie that identifies a browsing session
	SessionCookie = "session_id"
	// SessionHeader lets non-browser clients pass the session explicitly
	SessionHeader = "X-Session-ID"

	sessionContextKey = "session_id"
	sessionMaxAge     = 30 * 24 * 60 * 60
)

// Session resolves the session id from the header or cookie, minting a new
// one when neither carries a valid id.
func Session(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := normalizeSessionID(c.GetHeader(SessionHeader))
		if !ok {
			cookie, _ := c.Cookie(SessionCookie)
			sessionID, ok = normalizeSessionID(cookie)
		}

		if !ok {
			sessionID = uuid.New().String()
		}

		// Refresh the cookie on every request so active sessions do not expire
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sessionID, sessionMaxAge, "/", "", secureCookies, true)
		c.Header(SessionHeader, sessionID)
		c.Set(sessionContextKey, sessionID)

		c.Next()
	}
}

// GetSessionID extracts the session id set by Session
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionContextKey)
}

// normalizeSessionID returns the canonical dashed form of a uuid, so every
// spelling uuid.Parse accepts maps to one storage key.
func normalizeSessionID(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
