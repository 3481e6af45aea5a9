package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wtwinds/wtwinds-backend/internal/config"
	"github.com/wtwinds/wtwinds-backend/internal/sessions"
	"github.com/wtwinds/wtwinds-backend/pkg/logger"
)

const sessionContextKey = "session"

// SessionMiddleware resolves the browser session from the signed cookie and
// attaches it to the request context. A missing, tampered or expired cookie
// gets a fresh empty session and a new cookie.
func SessionMiddleware(cfg *config.Config, svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *sessions.Session

		if value, err := c.Cookie(cfg.Session.CookieName); err == nil && value != "" {
			if sid, err := sessions.DecodeCookie(cfg.Session.Secret, value); err == nil {
				if s, err := svc.Get(c.Request.Context(), sid); err == nil {
					sess = s
				} else {
					logger.Warnf("session lookup failed: %v", err)
				}
			}
		}

		if sess == nil {
			s, err := svc.Create(c.Request.Context())
			if err != nil {
				logger.Errorf("failed to create session: %v", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			value, err := sessions.EncodeCookie(cfg.Session.Secret, s.SID, s.ExpiresAt)
			if err != nil {
				logger.Errorf("failed to sign session cookie: %v", err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.SetCookie(cfg.Session.CookieName, value, int(svc.TTL().Seconds()), "/", "", false, true)
			sess = s
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session placed in the context by SessionMiddleware.
func CurrentSession(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(*sessions.Session); ok {
			return s
		}
	}
	return nil
}

// RequireAuth redirects to the login entry when the session has no email yet.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := CurrentSession(c)
		if s == nil || s.Email == "" {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
