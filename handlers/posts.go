package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wtwinds/wtwinds-backend/internal/config"
	"github.com/wtwinds/wtwinds-backend/internal/posts"
	"github.com/wtwinds/wtwinds-backend/internal/sessions"
	"github.com/wtwinds/wtwinds-backend/internal/users"
	"github.com/wtwinds/wtwinds-backend/pkg/logger"
	"github.com/wtwinds/wtwinds-backend/pkg/metrics"
	"github.com/wtwinds/wtwinds-backend/pkg/middleware"
)

// PostsHandler serves the dashboard feed and post mutations.
type PostsHandler struct {
	cfg         *config.Config
	usersSvc    *users.Service
	postsSvc    *posts.Service
	sessionsSvc *sessions.Service
}

func NewPostsHandler(cfg *config.Config, u *users.Service, p *posts.Service, s *sessions.Service) *PostsHandler {
	return &PostsHandler{cfg: cfg, usersSvc: u, postsSvc: p, sessionsSvc: s}
}

// Register wires the feed routes behind the auth gate.
func (h *PostsHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/", middleware.RequireAuth())
	g.GET("/dashboard", h.Dashboard)
	g.POST("/dashboard", h.Dashboard)
	g.GET("/like/:id", h.Like)
	g.POST("/comment/:id", h.Comment)
	g.GET("/delete-post/:id", h.Delete)
}

func (h *PostsHandler) profileRoute() string {
	if h.cfg.Auth.Mode == config.AuthModePassword {
		return "/profile"
	}
	return "/signup"
}

// Dashboard renders the feed; on POST it first creates the submitted post.
// The profile-completeness check runs before the insert, so an incomplete
// profile can never post.
func (h *PostsHandler) Dashboard(c *gin.Context) {
	s := middleware.CurrentSession(c)

	u, err := h.usersSvc.GetByEmail(c.Request.Context(), s.Email)
	if err != nil {
		logger.Errorf("dashboard user lookup failed: %v", err)
		c.Redirect(http.StatusFound, "/")
		return
	}
	if u == nil {
		// the user document is gone; the session no longer identifies anyone
		if err := h.sessionsSvc.Delete(c.Request.Context(), s.SID); err != nil {
			logger.Errorf("failed to delete session: %v", err)
		}
		c.SetCookie(h.cfg.Session.CookieName, "", -1, "/", "", false, true)
		c.Redirect(http.StatusFound, "/")
		return
	}
	if !u.ProfileCompleted {
		c.Redirect(http.StatusFound, h.profileRoute())
		return
	}

	// post-redirect-get: a submitted post redirects back so a refresh can't
	// resubmit it
	if c.Request.Method == http.MethodPost {
		content := c.PostForm("content")
		if content != "" {
			if err := h.postsSvc.Create(c.Request.Context(), s.Email, content); err != nil {
				logger.Errorf("post insert failed: %v", err)
				s.AddFlash("Could not publish your post, try again", "danger")
				if err := h.sessionsSvc.Save(c.Request.Context(), s); err != nil {
					logger.Errorf("failed to save session: %v", err)
				}
			} else {
				metrics.PostsCreated.Inc()
			}
		}
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	feed, err := h.postsSvc.Feed(c.Request.Context())
	if err != nil {
		logger.Errorf("feed load failed: %v", err)
		s.AddFlash("Could not load the feed", "danger")
	}
	// drain flashes and persist so a refresh doesn't replay them
	flashes := s.PopFlashes()
	if err := h.sessionsSvc.Save(c.Request.Context(), s); err != nil {
		logger.Errorf("failed to save session: %v", err)
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"User":    u,
		"Posts":   feed,
		"Flashes": flashes,
	})
}

// Like toggles the current user's like on a post. Unknown or malformed ids
// redirect harmlessly.
func (h *PostsHandler) Like(c *gin.Context) {
	s := middleware.CurrentSession(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	liked, err := h.postsSvc.ToggleLike(c.Request.Context(), id, s.Email)
	switch {
	case err == posts.ErrNotFound:
		// post vanished between render and click; nothing to do
	case err != nil:
		logger.Errorf("like toggle failed: %v", err)
	case liked:
		metrics.LikesToggled.WithLabelValues("like").Inc()
	default:
		metrics.LikesToggled.WithLabelValues("unlike").Inc()
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// Comment appends a comment to a post. Empty text and unknown ids are
// silent no-ops.
func (h *PostsHandler) Comment(c *gin.Context) {
	s := middleware.CurrentSession(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	if err := h.postsSvc.Comment(c.Request.Context(), id, s.Email, c.PostForm("comment")); err != nil {
		logger.Errorf("comment append failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// Delete removes the post only when the session user authored it; a foreign
// id matches nothing and falls through silently.
func (h *PostsHandler) Delete(c *gin.Context) {
	s := middleware.CurrentSession(c)

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	if err := h.postsSvc.Delete(c.Request.Context(), id, s.Email); err != nil {
		logger.Errorf("post delete failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/dashboard")
}
