package middleware

import (
	"net/http"

	"viz-agent/web/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const SessionCookieName = "viz_agent_session"
const CookieMaxAge = 30 * 24 * 60 * 60 // 30 days

// SessionMiddleware resolves the session cookie to a live session, creating
// one when the cookie is missing or points at an expired session.
func SessionMiddleware(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := resolveSession(c, store)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
			return
		}

		c.Set("session", sess)
		c.Next()
	}
}

func resolveSession(c *gin.Context, store *session.Store) (*session.Session, error) {
	cookie, err := c.Cookie(SessionCookieName)
	if err == nil {
		if id, parseErr := uuid.Parse(cookie); parseErr == nil {
			if sess, ok := store.Get(id); ok {
				return sess, nil
			}
		}
		// Stale or malformed cookie: fall through and issue a fresh session.
	}

	sess, err := store.Create()
	if err != nil {
		return nil, err
	}
	c.SetCookie(SessionCookieName, sess.ID().String(), CookieMaxAge, "/", "", false, true)
	return sess, nil
}

// CurrentSession pulls the session the middleware attached to the request.
func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet("session").(*session.Session)
}
