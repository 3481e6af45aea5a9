package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/wtwinds/wtwinds-backend/internal/config"
	"github.com/wtwinds/wtwinds-backend/internal/models"
	"github.com/wtwinds/wtwinds-backend/internal/posts"
	"github.com/wtwinds/wtwinds-backend/internal/sessions"
	"github.com/wtwinds/wtwinds-backend/internal/users"
	"github.com/wtwinds/wtwinds-backend/pkg/middleware"
	"github.com/wtwinds/wtwinds-backend/web"
)

// fake user repo keyed by email
type fakeUserRepo struct {
	store map[string]*models.User
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.store == nil {
		return nil, nil
	}
	u, ok := f.store[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Insert(ctx context.Context, u *models.User) error {
	if f.store == nil {
		f.store = map[string]*models.User{}
	}
	cp := *u
	f.store[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) SetProfile(ctx context.Context, email string, p users.Profile) error {
	if u, ok := f.store[email]; ok {
		u.Name = p.Name
		u.Age = p.Age
		u.College = p.College
		u.Profession = p.Profession
		u.ProfileCompleted = true
	}
	return nil
}

// fake mailer recording the last delivery
type fakeMailer struct {
	lastTo   string
	lastCode string
	sent     int
	fail     bool
}

func (f *fakeMailer) SendOTP(ctx context.Context, to, code string) error {
	f.sent++
	f.lastTo = to
	f.lastCode = code
	if f.fail {
		return errors.New("smtp unreachable")
	}
	return nil
}

// testApp wires the full router the way main does, with fakes behind it and
// a single browser session carried across requests.
type testApp struct {
	r        *gin.Engine
	cfg      *config.Config
	userRepo *fakeUserRepo
	postRepo *posts.MemoryRepo
	mailer   *fakeMailer
	sessions *sessions.Service
	cookie   *http.Cookie
}

func newTestApp(t *testing.T, mode string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	cfg := &config.Config{}
	cfg.Session.Secret = "handlers-test-secret-32-bytes-xxx"
	cfg.Session.CookieName = "wtw_session"
	cfg.Session.TTL = time.Hour
	cfg.Auth.Mode = mode
	cfg.Auth.OTPTTL = 5 * time.Minute
	cfg.Auth.OTPMaxAttempts = 3

	app := &testApp{
		cfg:      cfg,
		userRepo: &fakeUserRepo{},
		postRepo: posts.NewMemoryRepo(),
		mailer:   &fakeMailer{},
		sessions: sessions.NewService(sessions.NewRedisRepository(client, "test:session:"), cfg.Session.TTL),
	}

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.Use(middleware.SessionMiddleware(cfg, app.sessions))

	uSvc := users.NewService(app.userRepo)
	pSvc := posts.NewService(app.postRepo)
	NewAuthHandler(cfg, uSvc, app.sessions, app.mailer).Register(r.Group("/"))
	NewPostsHandler(cfg, uSvc, pSvc, app.sessions).Register(r.Group("/"))

	app.r = r
	return app
}

func (a *testApp) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == a.cfg.Session.CookieName {
			if c.MaxAge < 0 {
				a.cookie = nil
			} else {
				a.cookie = &http.Cookie{Name: c.Name, Value: c.Value}
			}
		}
	}
	return w
}

func (a *testApp) get(t *testing.T, path string) *httptest.ResponseRecorder {
	return a.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req)
}

// completeOTPLogin walks the whole OTP flow for email and finishes the profile.
func (a *testApp) completeOTPLogin(t *testing.T, email, name string) {
	t.Helper()
	a.get(t, "/") // establish session cookie

	w := a.postForm(t, "/", url.Values{"action": {"send_otp"}, "email": {email}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, email, a.mailer.lastTo)

	w = a.postForm(t, "/", url.Values{"action": {"verify_otp"}, "otp": {a.mailer.lastCode}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/signup", w.Header().Get("Location"))

	w = a.postForm(t, "/signup", url.Values{"name": {name}, "age": {"30"}, "college": {"MIT"}, "profession": {"engineer"}})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
}
