package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/config"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/handler"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/middleware"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/response"
	"github.com/FaisalJAbushanab/gamified-rehabilitation-api/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Word     *handler.WordHandler
	Practice *handler.PracticeHandler
	Session  *handler.SessionHandler
	WS       *handler.WSHandler
	System   *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	counter middleware.Counter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	// Audio and images are already compressed.
	brotliCfg := middleware.DefaultBrotliConfig
	brotliCfg.SkipPrefixes = []string{"/media"}
	router.Use(middleware.BrotliWithConfig(brotliCfg))

	// Catalog media never changes under a given name; cache for a day.
	media := router.Group("/media")
	media.Use(middleware.CacheControl(86400))
	{
		media.Static("/", cfg.MediaDir)
	}

	router.GET("/health", handlers.System.Health)

	requireUser := []gin.HandlerFunc{
		middleware.RequireUserJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
		middleware.NoStore(),
	}

	loginLimiter := middleware.NewRateLimiter(counter, cfg.LoginRatePerMin, time.Minute,
		func(c *gin.Context, window int64) string {
			return config.CacheKey.LoginRateKey(c.ClientIP(), window)
		})
	transcribeLimiter := middleware.NewRateLimiter(counter, cfg.TranscribeRatePerMin, time.Minute,
		func(c *gin.Context, window int64) string {
			if claims := middleware.GetClaims(c); claims != nil {
				return config.CacheKey.TranscribeRateKey(claims.UserID, window)
			}
			return config.CacheKey.LoginRateKey(c.ClientIP(), window)
		})

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", loginLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", append(requireUser, handlers.Auth.Logout)...)
	}

	// ─── 2. Users ──────────────────────────────────────────────────────
	// The account picker on the login screen lists users before sign-in.
	router.GET("/api/v1/users", middleware.NoStore(), handlers.User.ListUsers)

	me := router.Group("/api/v1/users/me")
	me.Use(requireUser...)
	{
		me.GET("", handlers.User.GetProfile)
		me.PUT("/progress", handlers.User.UpdateProgress)
		me.GET("/time-limit", handlers.User.GetTimeLimit)
	}

	// ─── 3. Word Catalog (Public, Cacheable) ───────────────────────────
	words := router.Group("/api/v1/words")
	words.Use(middleware.CacheControl(300))
	{
		words.GET("", handlers.Word.ListWords)
		words.GET("/:id", handlers.Word.GetWord)
	}

	// ─── 4. Practice (JWT + Single Device) ─────────────────────────────
	practice := router.Group("/api/v1/practice")
	practice.Use(requireUser...)
	{
		practice.POST("/transcribe", transcribeLimiter.Middleware(), handlers.Practice.Transcribe)
		practice.POST("/match", handlers.Practice.Match)
	}

	sessions := router.Group("/api/v1/sessions")
	sessions.Use(requireUser...)
	{
		sessions.POST("", handlers.Session.CreateSession)
		sessions.GET("", handlers.Session.ListSessions)
		sessions.GET("/:id", handlers.Session.GetSession)
	}

	// ─── 5. WebSocket Group (Token in Query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		ws.GET("/practice", handlers.WS.PracticeStream)
	}

	return router
}
