package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wdym/internal/service"
)

// UserHandler handles user lookups.
type UserHandler struct {
	authService *service.AuthService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type userURI struct {
	Username string `uri:"username" binding:"required,alphanum"`
}

// GetUser handles GET /api/users/:username.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *UserHandler) GetUser(c *gin.Context) {
	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	id, err := h.authService.GetUser(c.Request.Context(), uri.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, id)
}
