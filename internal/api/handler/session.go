package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wdym/internal/api/middleware"
	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/service"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SessionHandler handles login sessions.
type SessionHandler struct {
	authService *service.AuthService
	cookie      CookieConfig
}

// NewSessionHandler creates a new session handler.
// Parameters:
//   - authService: credential checks and tokens.
//   - cookie: session cookie settings.
// Returns:
//   - *SessionHandler: initialized handler.
func NewSessionHandler(authService *service.AuthService, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// LoginRequest is the body of POST /api/sessions.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/sessions.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response and sets the session cookie).
func (h *SessionHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	id, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
			return
		}
		respondError(c, err)
		return
	}

	token, expires, err := h.authService.IssueToken(id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setCookie(c, token, int(time.Until(expires).Seconds()))
	middleware.GetLogger(c).WithField("username", id.Username).Info("User logged in")
	c.JSON(http.StatusOK, id)
}

// Current handles GET /api/sessions/current.
func (h *SessionHandler) Current(c *gin.Context) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, id)
}

// Logout handles DELETE /api/sessions/current.
func (h *SessionHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.Status(http.StatusOK)
}

func (h *SessionHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
