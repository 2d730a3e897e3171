package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/shape-crop/internal/http/handlers"
	"github.com/phambaophuc/shape-crop/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	imageHandler *handlers.ImageHandler
	logger       *zap.Logger
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	logger *zap.Logger,
) *Router {
	return &Router{
		imageHandler: imageHandler,
		logger:       logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.imageHandler.HealthCheck)
		v1.GET("/stats", r.imageHandler.GetStats)

		captures := v1.Group("/captures")
		{
			captures.POST("", middleware.RequireMultipart(), r.imageHandler.Capture)
			captures.POST("/async", middleware.RequireMultipart(), r.imageHandler.CaptureAsync)
			captures.GET("/jobs/:id", r.imageHandler.GetJob)
		}

		gallery := v1.Group("/gallery")
		{
			gallery.GET("", r.imageHandler.ListGallery)
			gallery.GET("/:filename", r.imageHandler.GetPicture)
			gallery.DELETE("/:filename", r.imageHandler.DeletePicture)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Shape crop is running",
		})
	})

	return router
}
