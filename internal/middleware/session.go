package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/state"
)

const sessionKey = "session"

type SessionOptions struct {
	Cookie string
	MaxAge time.Duration
	Secure bool
}

// Session attaches the caller's state.Session, issuing a session cookie on
// first contact.
func Session(registry *state.Registry, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(opts.Cookie)

		sess, created := registry.Resolve(c.Request.Context(), id)
		if created || id != sess.ID {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.Cookie, sess.ID, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GetSession returns the session attached by Session, or nil.
func GetSession(c *gin.Context) *state.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*state.Session)
	return sess
}
