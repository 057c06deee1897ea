package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-result-analysis/api/swagger"
	"github.com/noah-isme/sma-result-analysis/internal/handler"
	"github.com/noah-isme/sma-result-analysis/internal/middleware"
	"github.com/noah-isme/sma-result-analysis/internal/models"
	"github.com/noah-isme/sma-result-analysis/internal/repository"
	"github.com/noah-isme/sma-result-analysis/internal/service"
	"github.com/noah-isme/sma-result-analysis/pkg/cache"
	"github.com/noah-isme/sma-result-analysis/pkg/config"
	"github.com/noah-isme/sma-result-analysis/pkg/database"
	"github.com/noah-isme/sma-result-analysis/pkg/jobs"
	"github.com/noah-isme/sma-result-analysis/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-result-analysis/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-result-analysis/pkg/middleware/requestid"
	"github.com/noah-isme/sma-result-analysis/pkg/storage"
)

// @title SMA Result Analysis API
// @version 1.0.0
// @description Exam result aggregation, ranking and class analysis
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	analysisCache := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analysis.CacheTTL, logr, cfg.Analysis.CacheEnabled)
	dashboardCache := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Analysis.CacheEnabled)

	examRepo := repository.NewExamRepository(db)
	resultRepo := repository.NewResultRepository(db)
	gradingRepo := repository.NewGradingSystemRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
	chartSvc := service.NewChartService(cfg.Charts, nil, metricsSvc, logr)
	analysisSvc := service.NewAnalysisService(service.AnalysisServiceParams{
		Exams:          examRepo,
		Results:        resultRepo,
		GradingSystems: gradingRepo,
		Subjects:       subjectRepo,
		Classes:        classRepo,
		Students:       studentRepo,
		Charts:         chartSvc,
		Cache:          analysisCache,
		Metrics:        metricsSvc,
		Logger:         logr,
		Config: service.AnalysisServiceConfig{
			CacheTTL:   cfg.Analysis.CacheTTL,
			TrendExams: cfg.Analysis.TrendExams,
		},
	})
	gradingSvc := service.NewGradingService(gradingRepo, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Exams:       examRepo,
		Students:    studentRepo,
		Assignments: assignmentRepo,
		Analysis:    analysisSvc,
		Metrics:     metricsSvc,
		Cache:       dashboardCache,
		Logger:      logr,
		Config:      service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	teacher := string(models.RoleTeacher)

	analysisHandler := handler.NewAnalysisHandler(analysisSvc)
	analysisGroup := secured.Group("/analysis/exams/:examId")
	analysisGroup.GET("/classes/:classId", middleware.RBAC(middleware.AdminRoles(teacher)...), analysisHandler.ClassAnalysis)
	analysisGroup.GET("/classes/:classId/trends", middleware.RBAC(middleware.AdminRoles(teacher)...), analysisHandler.Trends)
	analysisGroup.GET("/classes/:classId/students/:studentId/charts",
		middleware.RBACWithSelf(middleware.StudentMatchesUser(studentRepo, "studentId"), middleware.AdminRoles(teacher, middleware.RoleSelf)...),
		analysisHandler.StudentCharts)
	analysisGroup.DELETE("/cache", middleware.RBAC(middleware.AdminRoles()...), analysisHandler.InvalidateCache)

	gradingHandler := handler.NewGradingHandler(gradingSvc)
	gradingGroup := secured.Group("/grading-systems")
	gradingGroup.Use(middleware.RBAC(middleware.AdminRoles()...))
	gradingGroup.POST("/validate", gradingHandler.ValidatePayload)
	gradingGroup.GET("/:id/validate", gradingHandler.ValidateStored)

	if cfg.Dashboard.Enabled {
		dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
		secured.GET("/dashboard", dashboardHandler.Dashboard)
	}

	if cfg.Reports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(analysisSvc, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewReportWorker(reportRepo, exportSvc, logr)
		queue := jobs.NewQueue("analysis-exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			OnFailure:  worker.MarkFailed,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, examRepo, assignmentRepo, queue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		reportHandler := handler.NewReportHandler(reportSvc)
		reports := secured.Group("/reports")
		reports.Use(middleware.RBAC(middleware.AdminRoles(teacher)...))
		reports.POST("/analysis", reportHandler.CreateAnalysisReport)
		reports.GET("/:id", reportHandler.ReportStatus)
		api.GET("/export/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
