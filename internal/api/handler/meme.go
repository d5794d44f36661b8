package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wdym/internal/service"
)

// MemeHandler handles meme-related endpoints.
type MemeHandler struct {
	gameService *service.GameService
}

// NewMemeHandler creates a new meme handler.
// Parameters:
//   - gameService: scores guest guesses.
// Returns:
//   - *MemeHandler: initialized handler.
func NewMemeHandler(gameService *service.GameService) *MemeHandler {
	return &MemeHandler{
		gameService: gameService,
	}
}

type captionScoreURI struct {
	MemeID    string `uri:"memeId" binding:"required,number"`
	CaptionID string `uri:"captionId" binding:"required,number"`
}

// CaptionScore handles GET /api/memes/:memeId/captions/:captionId.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *MemeHandler) CaptionScore(c *gin.Context) {
	var uri captionScoreURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	memeID, err1 := strconv.ParseInt(uri.MemeID, 10, 64)
	captionID, err2 := strconv.ParseInt(uri.CaptionID, 10, 64)
	if err1 != nil || err2 != nil {
		// Digits only, but too large for an id.
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	resp, err := h.gameService.ScoreGuess(c.Request.Context(), memeID, captionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
