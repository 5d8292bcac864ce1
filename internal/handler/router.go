package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/tasklist/backend/internal/logger"
	"github.com/tasklist/backend/internal/metrics"
	"github.com/tasklist/backend/internal/service"
)

type RouterDeps struct {
	Auth           *service.AuthService
	Lists          *service.ListService
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter wires the HTTP stages: CORS, then AuthMiddleware for /lists and /users/me,
// SessionMiddleware for the access-token endpoint.
func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), MetricsMiddleware(deps.Metrics), CORSMiddleware(deps.AllowedOrigins))

	r.GET("/", Root)
	r.GET("/ping", Ping)
	r.GET("/openapi.json", OpenAPIDoc)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	authHandler := NewAuthHandler(deps.Auth)
	users := r.Group("/users")
	users.POST("", authHandler.Signup)
	users.POST("/login", authHandler.Login)
	users.GET("/me/access-token", SessionMiddleware(deps.Auth), authHandler.AccessToken)
	users.GET("/me", AuthMiddleware(deps.Auth), authHandler.Me)

	listHandler := NewListHandler(deps.Lists)
	lists := r.Group("/lists", AuthMiddleware(deps.Auth))
	lists.GET("", listHandler.GetLists)
	lists.POST("", listHandler.CreateList)
	lists.PATCH("/:id", listHandler.UpdateList)
	lists.DELETE("/:id", listHandler.DeleteList)
	lists.GET("/:id/tasks", listHandler.GetTasks)
	lists.POST("/:id/tasks", listHandler.CreateTask)
	lists.PATCH("/:id/tasks/:taskId", listHandler.UpdateTask)
	lists.DELETE("/:id/tasks/:taskId", listHandler.DeleteTask)

	return r
}
