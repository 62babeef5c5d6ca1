package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fb-video-manager/infrastructure/realtime"
	httpHandler "fb-video-manager/interfaces/http"
	"fb-video-manager/interfaces/middleware"
)

func InitiateRouter(
	healthHandler httpHandler.IHealthHandler,
	postHandler httpHandler.IPostHandler,
	schedulerHandler httpHandler.ISchedulerHandler,
	downloadHandler httpHandler.IDownloadHandler,
	fileHandler httpHandler.IFileHandler,
	uploadHandler httpHandler.IUploadHandler,
	analyticsHandler httpHandler.IAnalyticsHandler,
	postHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler.Healthz)

	api := router.Group("api")

	// SSE stream of post status transitions
	if postHub != nil {
		api.GET("/events", func(ctx *gin.Context) { postHub.Serve(ctx) })
	}

	posts := api.Group("/posts")
	{
		posts.POST("", postHandler.CreatePost)
		posts.GET("", postHandler.ListPosts)
		posts.POST("/publish-now", postHandler.PublishNow)
		posts.GET("/upcoming", postHandler.Upcoming)
		posts.DELETE("/upcoming/:remoteId", postHandler.CancelUpcoming)
		posts.GET("/:id", postHandler.GetPost)
		posts.PATCH("/:id", postHandler.PatchPost)
		posts.DELETE("/:id", postHandler.DeletePost)
		posts.POST("/:id/cancel", postHandler.CancelPost)
	}

	scheduler := api.Group("/scheduler")
	{
		scheduler.GET("/status", schedulerHandler.Status)
		scheduler.POST("/start", schedulerHandler.Start)
		scheduler.POST("/stop", schedulerHandler.Stop)
		scheduler.POST("/process", schedulerHandler.Process)
	}

	download := api.Group("/download")
	{
		download.POST("", downloadHandler.Download)
		download.POST("/batch", downloadHandler.BatchDownload)
		download.GET("/:id/status", downloadHandler.DownloadStatus)
	}

	files := api.Group("/files")
	{
		files.GET("", fileHandler.ListFiles)
		files.GET("/export", fileHandler.ExportFiles)
		files.GET("/disk", fileHandler.ListDiskFiles)
		files.GET("/disk/:name", fileHandler.ServeDiskFile)
		files.DELETE("/disk/:name", fileHandler.DeleteDiskFile)
	}

	upload := api.Group("/upload")
	{
		upload.POST("/preview", uploadHandler.Preview)
		upload.POST("/confirm", uploadHandler.Confirm)
	}

	api.GET("/analytics/summary", analyticsHandler.Summary)
	api.GET("/settings/:key", analyticsHandler.GetSetting)
	api.PUT("/settings/:key", analyticsHandler.SetSetting)

	api.GET("/facebook/test", healthHandler.TestFacebook)

	return router
}
