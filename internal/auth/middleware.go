package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "roster_session"

const sessionKey = "session"

// RequireSession gates a handler on a valid session cookie. Requests
// without one are rejected with 401 before the handler runs.
func RequireSession(sessions Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		sess, ok, err := sessions.Get(c.Request.Context(), token)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session placed by RequireSession.
func CurrentSession(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	sess, ok := v.(Session)
	return sess, ok
}
