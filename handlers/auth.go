package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lovenotes/anniversary/internal/page"
	"github.com/lovenotes/anniversary/internal/sessions"
	"github.com/lovenotes/anniversary/internal/tokens"
	"github.com/lovenotes/anniversary/pkg/logger"
	"github.com/lovenotes/anniversary/pkg/middleware"
)

const accessDenied = "Access Denied"

// LoginRequest is the JSON body of POST /admin/login.
type LoginRequest struct {
	Password string `json:"password" form:"password"`
}

// AdminOptions configure the admin surface.
type AdminOptions struct {
	Manager      *page.Manager
	Verifier     middleware.Verifier
	Secret       []byte
	Password     string // plain text or a bcrypt hash
	TokenTTL     time.Duration
	SecureCookie bool
}

// AdminHandler holds dependencies of the login gate and the admin page.
type AdminHandler struct {
	mgr          *page.Manager
	verifier     middleware.Verifier
	secret       []byte
	passwordHash []byte
	ttl          time.Duration
	secure       bool
	controllers  *sessions.Registry[*page.Controller]
}

func NewAdminHandler(opts AdminOptions) (*AdminHandler, error) {
	if opts.Password == "" {
		return nil, errors.New("admin password is not configured")
	}
	hash := []byte(opts.Password)
	if _, err := bcrypt.Cost(hash); err != nil {
		hash, err = bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AdminHandler{
		mgr:          opts.Manager,
		verifier:     opts.Verifier,
		secret:       opts.Secret,
		passwordHash: hash,
		ttl:          ttl,
		secure:       opts.SecureCookie,
		controllers:  sessions.NewRegistry[*page.Controller](ttl),
	}, nil
}

// Register mounts the admin page and the admin API. limit (rate limiting)
// guards login, the form save, and every admin API route after authentication.
func (h *AdminHandler) Register(r gin.IRouter, limit ...gin.HandlerFunc) {
	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, limit...), handler)
	}
	r.GET("/admin", h.AdminPage)
	r.POST("/admin/login", limited(h.Login)...)
	r.POST("/admin/logout", h.Logout)
	r.POST("/admin/save", limited(h.SavePage)...)

	api := r.Group("/api/admin", middleware.AuthMiddleware(h.verifier))
	api.Use(limit...)
	api.GET("/form", h.GetForm)
	api.POST("/uploads/:field", h.StageUpload)
	api.DELETE("/uploads/:field", h.DiscardUpload)
	api.POST("/save", h.Save)
	api.GET("/progress", h.GetProgress)
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "application/json") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

// Login compares the submitted password against the configured one and
// starts a new admin session.
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)) != nil {
		logger.Warnf("admin login rejected from %s", c.ClientIP())
		if wantsJSON(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": accessDenied})
		} else {
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": accessDenied})
		}
		return
	}

	sid := uuid.NewString()
	token, exp, err := tokens.GenerateAdminToken(h.secret, sid, h.ttl)
	if err != nil {
		logger.Errorf("failed to create admin token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	h.controllers.GetOrCreate(sid, h.mgr.NewController)
	h.controllers.Sweep()
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.ttl.Seconds()), "/", "", h.secure, true)
	logger.Infof("admin session %s started", sid)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": exp.UTC()})
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin")
}

// Logout revokes the session of the presented token and clears the cookie.
func (h *AdminHandler) Logout(c *gin.Context) {
	if raw, err := middleware.TokenFromRequest(c); err == nil {
		if claims, sid, err := middleware.Authenticate(c.Request.Context(), h.verifier, raw); err == nil {
			h.controllers.Delete(sid)
			if err := sessions.RevokeSession(c.Request.Context(), sid, remaining(claims)); err != nil {
				logger.Errorf("failed to revoke session %s: %v", sid, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke session"})
				return
			}
			logger.Infof("admin session %s ended", sid)
		}
	}
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secure, true)
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin")
}

// remaining returns the time left before the token's exp claim.
func remaining(claims map[string]interface{}) time.Duration {
	exp, ok := claims["exp"].(float64)
	if !ok {
		return 0
	}
	return time.Until(time.Unix(int64(exp), 0))
}

// controller returns the page state of the session, creating it on first use.
func (h *AdminHandler) controller(sid string) *page.Controller {
	return h.controllers.GetOrCreate(sid, h.mgr.NewController)
}

// sessionFromCookie authenticates a browser request.
func (h *AdminHandler) sessionFromCookie(c *gin.Context) (string, bool) {
	raw, err := middleware.TokenFromRequest(c)
	if err != nil {
		return "", false
	}
	_, sid, err := middleware.Authenticate(c.Request.Context(), h.verifier, raw)
	if err != nil {
		logger.Debugf("admin page: %v", err)
		return "", false
	}
	return sid, true
}
