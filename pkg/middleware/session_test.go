package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/wtwinds/wtwinds-backend/internal/config"
	"github.com/wtwinds/wtwinds-backend/internal/sessions"
)

func testSessionSetup(t *testing.T) (*config.Config, *sessions.Service) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	svc := sessions.NewService(sessions.NewRedisRepository(client, "test:session:"), time.Hour)

	cfg := &config.Config{}
	cfg.Session.Secret = "middleware-test-secret-32-bytes-x"
	cfg.Session.CookieName = "wtw_session"
	return cfg, svc
}

func TestSessionMiddleware_NewVisitorGetsCookie(t *testing.T) {
	cfg, svc := testSessionSetup(t)

	r := gin.New()
	r.Use(SessionMiddleware(cfg, svc))
	r.GET("/", func(c *gin.Context) {
		s := CurrentSession(c)
		require.NotNil(t, s)
		require.Empty(t, s.Email)
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "wtw_session", cookies[0].Name)

	sid, err := sessions.DecodeCookie(cfg.Session.Secret, cookies[0].Value)
	require.NoError(t, err)
	require.NotEmpty(t, sid)
}

func TestSessionMiddleware_ReturningVisitorKeepsState(t *testing.T) {
	cfg, svc := testSessionSetup(t)

	sess, err := svc.Create(context.Background())
	require.NoError(t, err)
	sess.Email = "a@x.com"
	require.NoError(t, svc.Save(context.Background(), sess))

	value, err := sessions.EncodeCookie(cfg.Session.Secret, sess.SID, sess.ExpiresAt)
	require.NoError(t, err)

	r := gin.New()
	r.Use(SessionMiddleware(cfg, svc))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentSession(c).Email)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "wtw_session", Value: value})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "a@x.com", w.Body.String())
}

func TestSessionMiddleware_TamperedCookieGetsFreshSession(t *testing.T) {
	cfg, svc := testSessionSetup(t)

	r := gin.New()
	r.Use(SessionMiddleware(cfg, svc))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentSession(c).Email)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "wtw_session", Value: "not.a.jwt"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())
	require.Len(t, w.Result().Cookies(), 1, "a replacement cookie should be issued")
}

func TestRequireAuth(t *testing.T) {
	cfg, svc := testSessionSetup(t)

	r := gin.New()
	r.Use(SessionMiddleware(cfg, svc))
	r.GET("/dashboard", RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "feed")
	})

	// anonymous -> redirect to login entry
	req := httptest.NewRequest("GET", "/dashboard", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	// signed-in -> allowed
	sess, err := svc.Create(context.Background())
	require.NoError(t, err)
	sess.Email = "a@x.com"
	require.NoError(t, svc.Save(context.Background(), sess))
	value, err := sessions.EncodeCookie(cfg.Session.Secret, sess.SID, sess.ExpiresAt)
	require.NoError(t, err)

	req2 := httptest.NewRequest("GET", "/dashboard", nil)
	req2.AddCookie(&http.Cookie{Name: "wtw_session", Value: value})
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, "feed", w2.Body.String())
}
