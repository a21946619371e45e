package server

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"StockDash/internal/auth"
)

const (
	sessionCookie = "stockdash_session"
	sessionKey    = "session"
)

// loadSession attaches the signed-in user, if any, to the request.
func (s *Server) loadSession(c *gin.Context) {
	if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
		if sess, ok := s.deps.Sessions.Get(id); ok {
			c.Set(sessionKey, sess)
		}
	}
	c.Next()
}

func currentUser(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	sess, ok := v.(auth.Session)
	return sess, ok
}

// requirePage sends anonymous visitors to the sign-in page.
func (s *Server) requirePage(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.Redirect(http.StatusSeeOther, "/signin?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}
	c.Next()
}

// requireAPI rejects anonymous API and websocket calls.
func (s *Server) requireAPI(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ServiceResponse[any]{Error: "sign in required"})
		return
	}
	c.Next()
}

func (s *Server) startSession(c *gin.Context, email, username string) {
	sess := s.deps.Sessions.Create(email, username)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sess.ID, int(sess.ExpiresAt.Sub(s.now()).Seconds()), "/", "", s.opts.SecureCookies, true)
}

func (s *Server) endSession(c *gin.Context) {
	if id, err := c.Cookie(sessionCookie); err == nil {
		s.deps.Sessions.Delete(id)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", s.opts.SecureCookies, true)
}
