package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fb-video-manager/domain/repository"
	"fb-video-manager/infrastructure/cache"
	facebookclient "fb-video-manager/infrastructure/clients/facebook"
	"fb-video-manager/infrastructure/configuration"
	"fb-video-manager/infrastructure/downloader"
	"fb-video-manager/infrastructure/logger"
	"fb-video-manager/infrastructure/persistence"
	"fb-video-manager/infrastructure/pubsub"
	"fb-video-manager/infrastructure/realtime"
	"fb-video-manager/infrastructure/servicebus"
	"fb-video-manager/infrastructure/transcoder"
	httpHandler "fb-video-manager/interfaces/http"
	"fb-video-manager/server"
	"fb-video-manager/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	psqlDb, mssqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	if err := persistence.EnsureSchema(psqlDb); err != nil {
		logger.GetLogger().WithField("error", err).Error("Schema initialization failed")
		os.Exit(1)
	}
	logger.GetLogger().WithField("PSQLDb", psqlDb.Ping()).Info("Database connected.")

	// Optional MySQL mirror for reporting tooling
	if configuration.C.Database.MySql.Name != "" {
		if gormDb, err := persistence.NewRepositories(); err != nil {
			logger.GetLogger().WithField("error", err).Warn("MySQL mirror not available - continuing without it")
		} else if mirror, err := gormDb.DB(); err == nil {
			logger.GetLogger().WithField("MySQLMirror", mirror.Ping()).Info("MySQL mirror connected.")
		}
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
		configuration.C.Database.Mongo.Name,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without Mongo features")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without Mongo features")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Pub/Sub not available - continuing without event fan-out")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without transition notifications")
		azServiceBusClient = nil
	}

	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)

	// Repository wiring: the scheduled-post store runs on Azure SQL in
	// production, PostgreSQL otherwise. Library, analytics and settings
	// stay on PostgreSQL.
	var postRepository repository.IScheduledPost
	if mssqlDb != nil {
		postRepository = persistence.NewScheduledPostRepositoryMSSQL(mssqlDb)
	} else {
		postRepository = persistence.NewScheduledPostRepository(psqlDb)
	}
	fileRepository := persistence.NewDownloadedFileRepository(psqlDb)
	settingsRepository := persistence.NewSettingsRepository(psqlDb)

	var analyticsRepository repository.IAnalytics
	primaryAnalytics := persistence.NewAnalyticsRepository(psqlDb)
	if mongoDb != nil {
		analyticsRepository = persistence.NewMongoAnalyticsRepository(mongoDb, primaryAnalytics)
	} else {
		analyticsRepository = primaryAnalytics
	}

	publisherFactory := facebookclient.NewFactory(ctx)
	videoDownloader := downloader.NewDownloader(configuration.C.Downloader)
	videoTranscoder := transcoder.NewTranscoder(configuration.C.Transcoder)

	if err := videoDownloader.CheckInstalled(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("yt-dlp not found - downloads will fail until it is installed")
	}

	postHub := realtime.NewPostHub()
	statusCache := cache.NewStatusCache(redisClient)
	transitionNotifier := servicebus.NewTransitionNotifier(azServiceBusClient, configuration.C.ServiceBus.Queue)
	eventPubSub := pubsub.NewEventPubSub(pubSubClient)

	schedulerUsecase := usecase.NewSchedulerUsecase(
		postRepository,
		fileRepository,
		analyticsRepository,
		publisherFactory,
		transitionNotifier,
		eventPubSub,
		configuration.C.Pubsub.Topic,
		postHub,
		statusCache,
		configuration.C.Scheduler,
	)
	postUsecase := usecase.NewPostUsecase(postRepository, fileRepository, analyticsRepository, publisherFactory, postHub, statusCache)
	upcomingUsecase := usecase.NewUpcomingUsecase(postRepository, analyticsRepository, publisherFactory, statusCache)
	downloadUsecase := usecase.NewDownloadUsecase(videoDownloader, fileRepository, analyticsRepository)
	uploadUsecase := usecase.NewUploadUsecase(publisherFactory, fileRepository, analyticsRepository, videoTranscoder)
	libraryUsecase := usecase.NewLibraryUsecase(fileRepository, analyticsRepository, settingsRepository)

	healthHandler := httpHandler.NewHealthHandler(publisherFactory)
	postHandler := httpHandler.NewPostHandler(postUsecase, upcomingUsecase)
	schedulerHandler := httpHandler.NewSchedulerHandler(schedulerUsecase)
	downloadHandler := httpHandler.NewDownloadHandler(downloadUsecase)
	fileHandler := httpHandler.NewFileHandler(libraryUsecase)
	uploadHandler := httpHandler.NewUploadHandler(uploadUsecase)
	analyticsHandler := httpHandler.NewAnalyticsHandler(libraryUsecase)

	router := server.InitiateRouter(
		healthHandler,
		postHandler,
		schedulerHandler,
		downloadHandler,
		fileHandler,
		uploadHandler,
		analyticsHandler,
		postHub,
	)

	schedulerUsecase.Start()

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	schedulerUsecase.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens the PostgreSQL store, plus the Azure SQL store when
// the environment selects it (ENV=production or DB_VENDOR=mssql).
func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	psql, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to PostgreSQL")
		return nil, nil, err
	}

	env := os.Getenv("ENV")
	if os.Getenv("DB_VENDOR") == "mssql" || env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Cannot connect to MSSQL; scheduled posts stay on PostgreSQL")
			return psql, nil, nil
		}
		return psql, mssql, nil
	}
	return psql, nil, nil
}
