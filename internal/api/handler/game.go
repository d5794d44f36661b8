package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/wdym/internal/api/middleware"
	"github.com/timmy/wdym/internal/domain"
	"github.com/timmy/wdym/internal/service"
)

// GameHandler handles game endpoints.
type GameHandler struct {
	gameService    *service.GameService
	historyService *service.HistoryService
}

// NewGameHandler creates a new game handler.
// Parameters:
//   - gameService: game orchestrator.
//   - historyService: completed game listing.
// Returns:
//   - *GameHandler: initialized handler.
func NewGameHandler(gameService *service.GameService, historyService *service.HistoryService) *GameHandler {
	return &GameHandler{
		gameService:    gameService,
		historyService: historyService,
	}
}

// StartGameRequest is the body of POST /api/games/new.
type StartGameRequest struct {
	Score *int `json:"score" binding:"required"`
}

// AnswerRequest is the answer to the current round.
type AnswerRequest struct {
	MemeID    int64 `json:"memeId" binding:"required,min=1"`
	CaptionID int64 `json:"captionId" binding:"required,min=1"`
	Timeout   *bool `json:"timeout" binding:"required"`
}

// NextRoundRequest is the body of POST /api/games/next.
type NextRoundRequest struct {
	GameID   int64          `json:"gameId" binding:"required,min=1"`
	MemeSeen []int64        `json:"memeSeen" binding:"required,dive,min=1"`
	Answer   *AnswerRequest `json:"answer" binding:"required"`
}

type historyURI struct {
	Username string `uri:"username" binding:"required,alphanum"`
}

// StartGuest handles GET /api/games/new.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GameHandler) StartGuest(c *gin.Context) {
	resp, err := h.gameService.StartGuest(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartGame handles POST /api/games/new.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GameHandler) StartGame(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req StartGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.gameService.StartGame(c.Request.Context(), user.UserID, *req.Score)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// NextRound handles POST /api/games/next.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GameHandler) NextRound(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req NextRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.gameService.Advance(c.Request.Context(), user.UserID, &service.AdvanceRequest{
		GameID:   domain.GameID(req.GameID),
		MemeSeen: req.MemeSeen,
		Answer: service.Answer{
			MemeID:    req.Answer.MemeID,
			CaptionID: req.Answer.CaptionID,
			Timeout:   *req.Answer.Timeout,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// History handles GET /api/games/history/:username. Users may only read
// their own history.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GameHandler) History(c *gin.Context) {
	var uri historyURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondBindError(c, err)
		return
	}

	user, _ := middleware.CurrentUser(c)
	if user.Username != uri.Username {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
		return
	}

	games, err := h.historyService.GetHistory(c.Request.Context(), uri.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, games)
}
