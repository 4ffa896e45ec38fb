package controller

import (
	"bot-file-system/conf"
	"bot-file-system/controller/handler"
	"bot-file-system/controller/respond"
	uploaderDocs "bot-file-system/docs/uploader"
	"bot-file-system/node"
	"bot-file-system/service/download_service"
	"bot-file-system/service/upload_service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services everything the uploader routes call into
type Services struct {
	Upload   *upload_service.UploadService
	Download *download_service.DownloadService
	Registry *node.Registry
}

// SetupUploaderRouter setup uploader service router
func SetupUploaderRouter(cfg *conf.Config, svc Services) *gin.Engine {
	// Set Swagger host from config
	uploaderDocs.SwaggerInfouploader.Host = cfg.Uploader.SwaggerBaseUrl

	// Create Gin engine
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Allow all origins, can be configured to specific domains
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Accept", "Cache-Control", "X-Requested-With", handler.OwnerHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * 3600, // 12 hours
	}))

	// Add timing middleware
	r.Use(respond.TimingMiddleware())

	// Bound multipart memory to one client chunk, the rest spills to disk
	r.MaxMultipartMemory = cfg.Upload.ChunkSize

	uploadHandler := handler.NewUploadHandler(svc.Upload, cfg.Upload.DirectMaxSize)
	downloadHandler := handler.NewDownloadHandler(svc.Download)
	nodeHandler := handler.NewNodeHandler(svc.Registry)

	// API v1 route group
	v1 := r.Group("/api/v1")
	{
		files := v1.Group("/files")
		{
			// Direct upload
			files.POST("/upload", uploadHandler.DirectUpload)

			// Resumable upload sessions
			sessions := files.Group("/sessions")
			{
				sessions.POST("", uploadHandler.InitSession)
				sessions.GET("/:sessionId", uploadHandler.GetSession)
				sessions.PUT("/:sessionId/chunks/:chunkIndex", uploadHandler.UploadChunk)
				sessions.POST("/:sessionId/complete", uploadHandler.CompleteSession)
				sessions.DELETE("/:sessionId", uploadHandler.CancelSession)
			}

			// File metadata and content
			files.GET("/:fileId", downloadHandler.GetFile)
			files.GET("/:fileId/content", downloadHandler.GetFileContent)
		}

		// Backend node health
		v1.GET("/nodes", nodeHandler.ListNodes)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "uploader",
		})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName("uploader")))

	return r
}
