package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/config"
	"github.com/cppla/inkpost/controllers"
	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/repository"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// Dependencies are the process-wide collaborators the router wires into controllers.
type Dependencies struct {
	Config config.AppConfig
	Store  repository.Store
	Hasher auth.Hasher
	Codec  *auth.TokenCodec
	// Cache may be nil; reads then always go to storage.
	Cache  *utils.Cache
	Logger *zap.Logger
	// AccessLogger receives access and panic logs; nil means Logger.
	AccessLogger *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	accessLogger := deps.AccessLogger
	if accessLogger == nil {
		accessLogger = logger
	}

	authService, err := services.NewAuthService(deps.Store, deps.Hasher, deps.Codec)
	if err != nil {
		return nil, err
	}
	userService := services.NewUserService(deps.Store, deps.Hasher)
	postService := services.NewPostService(deps.Store)
	commentService := services.NewCommentService(deps.Store)
	statsService := services.NewStatsService(deps.Store)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(utils.AccessLog(accessLogger))
	r.Use(utils.RecoveryWithZap(accessLogger, true))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	authController := controllers.NewAuthController(authService, logger)
	userController := controllers.NewUserController(userService, deps.Cache, logger)
	postController := controllers.NewPostController(postService, deps.Cache, logger)
	commentController := controllers.NewCommentController(commentService, logger)
	statsController := controllers.NewStatsController(statsService, logger)

	authRequired := middleware.AuthRequired(authService, logger)

	r.GET("/stats", statsController.GetStats)

	login := r.Group("/login")
	login.POST("/token", authController.Token)
	login.GET("/auth_endpoint", authRequired, authController.Me)

	r.POST("/users", userController.CreateUser)
	r.GET("/users", userController.GetUser)
	r.PATCH("/users", authRequired, userController.UpdateUser)
	r.DELETE("/users", authRequired, userController.DeleteUser)

	r.GET("/post", postController.GetPost)
	r.POST("/post", authRequired, postController.CreatePost)
	r.PATCH("/post", authRequired, postController.UpdatePost)
	r.DELETE("/post", authRequired, postController.DeletePost)

	comments := r.Group("/comment", authRequired)
	comments.POST("", commentController.CreateComment)
	comments.GET("", commentController.GetComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "route not found")
	})

	return r, nil
}
