package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/wdym/internal/api/handler"
	"github.com/timmy/wdym/internal/api/middleware"
	"github.com/timmy/wdym/internal/logger"
	"github.com/timmy/wdym/internal/service"
)

// Services are the backends the routes dispatch to.
type Services struct {
	Game    *service.GameService
	History *service.HistoryService
	Auth    *service.AuthService
	DB      handler.Pinger
}

// RouterConfig holds HTTP-level settings.
type RouterConfig struct {
	Mode   string
	CORS   middleware.CORSConfig
	Cookie handler.CookieConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *Services, cfg *RouterConfig, log *logger.Logger) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	handler.RegisterFieldNames()

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Authenticate(svc.Auth, cfg.Cookie.Name))

	healthHandler := handler.NewHealthHandler(svc.DB)
	gameHandler := handler.NewGameHandler(svc.Game, svc.History)
	memeHandler := handler.NewMemeHandler(svc.Game)
	sessionHandler := handler.NewSessionHandler(svc.Auth, cfg.Cookie)
	userHandler := handler.NewUserHandler(svc.Auth)

	r.GET("/health", healthHandler.Health)

	apiGroup := r.Group("/api")
	{
		// Sessions
		apiGroup.POST("/sessions", sessionHandler.Login)
		apiGroup.GET("/sessions/current", sessionHandler.Current)
		apiGroup.DELETE("/sessions/current", sessionHandler.Logout)

		// Guest play
		apiGroup.GET("/games/new", gameHandler.StartGuest)
		apiGroup.GET("/memes/:memeId/captions/:captionId", memeHandler.CaptionScore)

		authed := apiGroup.Group("", middleware.RequireAuth())
		authed.POST("/games/new", gameHandler.StartGame)
		authed.POST("/games/next", gameHandler.NextRound)
		authed.GET("/games/history/:username", gameHandler.History)
		authed.GET("/users/:username", userHandler.GetUser)
	}

	return r
}
