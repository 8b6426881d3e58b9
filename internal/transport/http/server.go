package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"

	appsvc "contest-tracker/internal/app"
	"contest-tracker/internal/bootstrap"
	rabbitmqClient "contest-tracker/internal/platform/rabbitmq"
	"contest-tracker/internal/repository"
	"contest-tracker/internal/tokenstore"
	"contest-tracker/internal/transport/http/handler"
	"contest-tracker/internal/transport/http/middleware"
	"contest-tracker/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.RequestLogger(), middleware.Recovery())
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found.")
	})
	router.NoMethod(handler.MethodNotAllowed())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.DB)
	contestRepo := repository.NewContestRepository(app.DB)
	auditRepo := repository.NewContestAuditRepository(app.DB)

	var publisher appsvc.ContestEventPublisher
	if app.MQConn != nil {
		publisher = rabbitmqClient.NewContestEventPublisher(app.MQConn, app.Config.RabbitMQ.AuditEventQueue)
	}

	userService := appsvc.NewUserService(userRepo, tokenstore.New(app.Redis), app.Config.Auth)
	contestService := appsvc.NewContestService(contestRepo, auditRepo, publisher)
	userHandler := handler.NewUserHandler(userService)
	contestHandler := handler.NewContestHandler(contestService)
	tokenAuth := middleware.TokenAuth(userService)

	userGroup := router.Group("/user")
	userGroup.POST("/create", userHandler.Create)
	userGroup.POST("/token", userHandler.Token)

	meGroup := userGroup.Group("", tokenAuth)
	meGroup.GET("/me", userHandler.Me)
	meGroup.PATCH("/me", userHandler.UpdateMe)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		meGroup.Handle(method, "/me", handler.MethodNotAllowed(http.MethodGet, http.MethodPatch))
	}
	meGroup.GET("/list", userHandler.List)

	contestGroup := router.Group("/contest", tokenAuth)
	contestGroup.GET("/", contestHandler.List)
	contestGroup.POST("/", contestHandler.Create)
	contestGroup.GET("/:id/", contestHandler.Retrieve)
	contestGroup.PUT("/:id/", contestHandler.Update)
	contestGroup.PATCH("/:id/", contestHandler.PartialUpdate)
	contestGroup.DELETE("/:id/", contestHandler.Destroy)
	contestGroup.GET("/:id/audit/", contestHandler.Audit)

	return router
}

// NewHandler wraps the router with CORS handling for browser clients.
func NewHandler(app *bootstrap.App) http.Handler {
	corsCfg := app.Config.CORS
	return cors.Handler(cors.Options{
		AllowedOrigins: corsCfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         corsCfg.MaxAgeSeconds,
	})(NewRouter(app))
}
