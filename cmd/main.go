package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qvhoang/Peregrine/config"
	"github.com/qvhoang/Peregrine/database"
	_ "github.com/qvhoang/Peregrine/docs" // Swagger docs - auto-generated
	"github.com/qvhoang/Peregrine/internal/controller"
	"github.com/qvhoang/Peregrine/internal/logger"
	"github.com/qvhoang/Peregrine/internal/model"
	"github.com/qvhoang/Peregrine/internal/repository"
	"github.com/qvhoang/Peregrine/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Peregrine Speech Grading API
// @version 1.0
// @description Asynchronous AI grading for recorded speech submissions: transcription, rubric-based content evaluation, filler word analysis and delivery feedback.
// @contact.name API Support
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		fx.Provide(
			repository.NewSubmissionRepository,
			repository.NewQueueRepository,
			repository.NewGradeRepository,
		),

		fx.Provide(
			service.NewTranscriptionService,
			service.NewContentEvaluationService,
			service.NewDeliveryAnalysisService,
			service.NewFillerWordService,
			service.NewScoringService,
			service.NewQueueProcessorService,
			func(
				submissionRepo repository.SubmissionRepository,
				queueRepo repository.QueueRepository,
				gradeRepo repository.GradeRepository,
				processor service.QueueProcessorService,
				cfg *config.Config,
			) service.SubmissionService {
				return service.NewSubmissionService(submissionRepo, queueRepo, gradeRepo, processor, cfg.Queue.MaxAttempts)
			},
		),

		fx.Provide(
			controller.NewController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartQueueTicker),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	ctrl *controller.Controller,
) {
	ctrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Speech grading API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// StartQueueTicker runs periodic grading passes for as long as the app is
// up. New submissions also trigger a pass directly; the ticker is the safety
// net that picks up requeued and reclaimed items.
func StartQueueTicker(lc fx.Lifecycle, cfg *config.Config, processor service.QueueProcessorService) {
	tickerCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(cfg.Queue.TickInterval)
				defer ticker.Stop()
				for {
					select {
					case <-tickerCtx.Done():
						return
					case <-ticker.C:
						if _, err := processor.RunPass(tickerCtx); err != nil {
							log.Error().Err(err).Msg("Scheduled queue pass failed")
						}
					}
				}
			}()
			log.Info().Dur("interval", cfg.Queue.TickInterval).Msg("Queue ticker started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Submission{},
		&model.QueueItem{},
		&model.Grade{},
		&model.Feedback{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
