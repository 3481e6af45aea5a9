package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wtwinds/wtwinds-backend/internal/config"
	"github.com/wtwinds/wtwinds-backend/internal/mail"
	"github.com/wtwinds/wtwinds-backend/internal/otp"
	"github.com/wtwinds/wtwinds-backend/internal/sessions"
	"github.com/wtwinds/wtwinds-backend/internal/users"
	"github.com/wtwinds/wtwinds-backend/pkg/logger"
	"github.com/wtwinds/wtwinds-backend/pkg/metrics"
	"github.com/wtwinds/wtwinds-backend/pkg/middleware"
)

const mailSendTimeout = 10 * time.Second

// AuthHandler serves the login flow (OTP or password mode), profile
// completion and session teardown.
type AuthHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	mailer      mail.Sender
}

func NewAuthHandler(cfg *config.Config, u *users.Service, s *sessions.Service, m mail.Sender) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, sessionsSvc: s, mailer: m}
}

// Register wires the auth routes. The profile-completion page lives at
// /signup in OTP mode and /profile in password mode; password mode uses
// /signup for account creation.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/", h.LoginPage)
	rg.POST("/", h.LoginSubmit)
	rg.GET("/change-email", h.ChangeEmail)
	rg.GET("/logout", h.Logout)

	if h.cfg.Auth.Mode == config.AuthModePassword {
		rg.GET("/signup", h.SignupPage)
		rg.POST("/signup", h.Signup)
		rg.GET("/profile", h.ProfilePage)
		rg.POST("/profile", h.CompleteProfile)
	} else {
		rg.GET("/signup", h.ProfilePage)
		rg.POST("/signup", h.CompleteProfile)
	}
}

// profileRoute is where an authenticated-but-incomplete user goes next.
func (h *AuthHandler) profileRoute() string {
	if h.cfg.Auth.Mode == config.AuthModePassword {
		return "/profile"
	}
	return "/signup"
}

// save persists session mutations, logging rather than failing the request.
func (h *AuthHandler) save(c *gin.Context, s *sessions.Session) {
	if err := h.sessionsSvc.Save(c.Request.Context(), s); err != nil {
		logger.Errorf("failed to save session: %v", err)
	}
}

// LoginPage renders the login entry, short-circuiting already-authenticated
// sessions to the dashboard or the profile page.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	s := middleware.CurrentSession(c)

	// auto-login gate: an authenticated session skips login entirely, unless
	// its user document has vanished
	if s.Email != "" {
		u, err := h.usersSvc.GetByEmail(c.Request.Context(), s.Email)
		if err != nil {
			logger.Errorf("auto-login lookup failed: %v", err)
		} else if u != nil {
			if u.ProfileCompleted {
				c.Redirect(http.StatusFound, "/dashboard")
			} else {
				c.Redirect(http.StatusFound, h.profileRoute())
			}
			return
		}
	}

	if s.Step == "" {
		s.Step = sessions.StepEmail
	}
	flashes := s.PopFlashes()
	h.save(c, s)

	c.HTML(http.StatusOK, "login.html", gin.H{
		"Mode":    h.cfg.Auth.Mode,
		"Step":    s.Step,
		"Email":   s.PendingEmail,
		"Flashes": flashes,
	})
}

// LoginSubmit dispatches the POST actions of the login form.
func (h *AuthHandler) LoginSubmit(c *gin.Context) {
	s := middleware.CurrentSession(c)

	// the gate applies to POSTs as well
	if s.Email != "" {
		u, err := h.usersSvc.GetByEmail(c.Request.Context(), s.Email)
		if err == nil && u != nil {
			if u.ProfileCompleted {
				c.Redirect(http.StatusFound, "/dashboard")
			} else {
				c.Redirect(http.StatusFound, h.profileRoute())
			}
			return
		}
	}

	action := c.PostForm("action")
	if h.cfg.Auth.Mode == config.AuthModePassword {
		if action == "login" {
			h.passwordLogin(c, s)
			return
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	switch action {
	case "send_otp":
		h.sendOTP(c, s, c.PostForm("email"))
	case "resend_otp":
		if s.PendingEmail == "" {
			c.Redirect(http.StatusFound, "/")
			return
		}
		h.sendOTP(c, s, s.PendingEmail)
	case "verify_otp":
		h.verifyOTP(c, s)
	default:
		c.Redirect(http.StatusFound, "/")
	}
}

// sendOTP issues a fresh code for email. The session is updated before the
// mail goes out, so a delivery failure leaves a retryable state behind.
func (h *AuthHandler) sendOTP(c *gin.Context, s *sessions.Session, email string) {
	if email == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	code, err := otp.Generate()
	if err != nil {
		logger.Errorf("otp generation failed: %v", err)
		s.AddFlash("Something went wrong, try again", "danger")
		h.save(c, s)
		c.Redirect(http.StatusFound, "/")
		return
	}

	s.PendingEmail = email
	s.SetOTP(code)
	h.save(c, s)

	sendCtx, sendCancel := context.WithTimeout(c.Request.Context(), mailSendTimeout)
	defer sendCancel()
	if err := h.mailer.SendOTP(sendCtx, email, code); err != nil {
		logger.Errorf("mail error for %s: %v", email, err)
		metrics.OTPSent.WithLabelValues("failed").Inc()
		s.AddFlash("Mail error - Check SMTP", "danger")
	} else {
		metrics.OTPSent.WithLabelValues("delivered").Inc()
		s.AddFlash("OTP sent to your email", "success")
	}
	h.save(c, s)
	c.Redirect(http.StatusFound, "/")
}

// verifyOTP checks the entered code against the session-held one. Expired or
// attempt-exhausted codes fail like mismatches; state stays retryable.
func (h *AuthHandler) verifyOTP(c *gin.Context, s *sessions.Session) {
	if s.PendingEmail == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	entered := c.PostForm("otp")
	switch {
	case s.OTP == "":
		s.AddFlash("No code pending, request a new one", "danger")
	case s.OTPExpired(h.cfg.Auth.OTPTTL):
		s.OTP = ""
		s.AddFlash("OTP expired, request a new one", "danger")
	case entered != s.OTP:
		s.OTPAttempts++
		if s.OTPAttempts >= h.cfg.Auth.OTPMaxAttempts {
			s.OTP = ""
			s.AddFlash("Too many attempts, request a new code", "danger")
		} else {
			s.AddFlash("Invalid OTP", "danger")
		}
		metrics.LoginAttempts.WithLabelValues("otp", "failure").Inc()
	default:
		u, err := h.usersSvc.EnsureVerified(c.Request.Context(), s.PendingEmail)
		if err != nil {
			logger.Errorf("user create/lookup failed: %v", err)
			s.AddFlash("Something went wrong, try again", "danger")
			break
		}
		metrics.LoginAttempts.WithLabelValues("otp", "success").Inc()
		s.Email = s.PendingEmail
		s.Verified = true
		s.OTP = ""
		s.Step = ""
		h.save(c, s)
		if u.ProfileCompleted {
			c.Redirect(http.StatusFound, "/dashboard")
		} else {
			c.Redirect(http.StatusFound, h.profileRoute())
		}
		return
	}

	h.save(c, s)
	c.Redirect(http.StatusFound, "/")
}

// passwordLogin verifies email+password credentials.
func (h *AuthHandler) passwordLogin(c *gin.Context, s *sessions.Session) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	u, err := h.usersSvc.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		logger.Errorf("login lookup failed: %v", err)
		s.AddFlash("Something went wrong, try again", "danger")
		h.save(c, s)
		c.Redirect(http.StatusFound, "/")
		return
	}
	if u == nil {
		metrics.LoginAttempts.WithLabelValues("password", "failure").Inc()
		s.AddFlash("Invalid credentials", "danger")
		h.save(c, s)
		c.Redirect(http.StatusFound, "/")
		return
	}

	metrics.LoginAttempts.WithLabelValues("password", "success").Inc()
	s.Email = u.Email
	h.save(c, s)
	if u.ProfileCompleted {
		c.Redirect(http.StatusFound, "/dashboard")
	} else {
		c.Redirect(http.StatusFound, h.profileRoute())
	}
}

// SignupPage renders account creation (password mode only).
func (h *AuthHandler) SignupPage(c *gin.Context) {
	s := middleware.CurrentSession(c)
	flashes := s.PopFlashes()
	h.save(c, s)
	c.HTML(http.StatusOK, "signup.html", gin.H{"Flashes": flashes})
}

// Signup creates a password account and routes to profile completion.
func (h *AuthHandler) Signup(c *gin.Context) {
	s := middleware.CurrentSession(c)
	email := c.PostForm("email")
	password := c.PostForm("password")
	if email == "" || password == "" {
		s.AddFlash("Email and password are required", "danger")
		h.save(c, s)
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	_, err := h.usersSvc.Signup(c.Request.Context(), email, password)
	if err == users.ErrEmailTaken {
		s.AddFlash("Account already exists, please log in", "danger")
		h.save(c, s)
		c.Redirect(http.StatusFound, "/")
		return
	}
	if err != nil {
		logger.Errorf("signup failed: %v", err)
		s.AddFlash("Something went wrong, try again", "danger")
		h.save(c, s)
		c.Redirect(http.StatusFound, "/signup")
		return
	}

	s.Email = email
	h.save(c, s)
	c.Redirect(http.StatusFound, h.profileRoute())
}

// ProfilePage renders profile completion for an authenticated session.
func (h *AuthHandler) ProfilePage(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s.Email == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	flashes := s.PopFlashes()
	h.save(c, s)
	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Action":  h.profileRoute(),
		"Flashes": flashes,
	})
}

// CompleteProfile overwrites the profile fields and marks the profile done.
// Field contents are accepted as-is.
func (h *AuthHandler) CompleteProfile(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s.Email == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	p := users.Profile{
		Name:       c.PostForm("name"),
		Age:        c.PostForm("age"),
		College:    c.PostForm("college"),
		Profession: c.PostForm("profession"),
	}
	if err := h.usersSvc.CompleteProfile(c.Request.Context(), s.Email, p); err != nil {
		logger.Errorf("profile update failed: %v", err)
		s.AddFlash("Something went wrong, try again", "danger")
		h.save(c, s)
		c.Redirect(http.StatusFound, h.profileRoute())
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// ChangeEmail drops the whole session: restart the OTP flow from scratch.
func (h *AuthHandler) ChangeEmail(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}

// Logout is the same teardown reached from the dashboard.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	s := middleware.CurrentSession(c)
	if s != nil {
		if err := h.sessionsSvc.Delete(c.Request.Context(), s.SID); err != nil {
			logger.Errorf("failed to delete session: %v", err)
		}
	}
	c.SetCookie(h.cfg.Session.CookieName, "", -1, "/", "", false, true)
}
