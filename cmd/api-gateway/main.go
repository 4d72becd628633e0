package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tutorlane/tutorhub-api/api/swagger"
	"github.com/tutorlane/tutorhub-api/internal/handler"
	"github.com/tutorlane/tutorhub-api/internal/middleware"
	"github.com/tutorlane/tutorhub-api/internal/models"
	"github.com/tutorlane/tutorhub-api/internal/repository"
	"github.com/tutorlane/tutorhub-api/internal/service"
	rediscache "github.com/tutorlane/tutorhub-api/pkg/cache"
	"github.com/tutorlane/tutorhub-api/pkg/config"
	"github.com/tutorlane/tutorhub-api/pkg/database"
	"github.com/tutorlane/tutorhub-api/pkg/logger"
	corsmiddleware "github.com/tutorlane/tutorhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tutorlane/tutorhub-api/pkg/middleware/requestid"
	"github.com/tutorlane/tutorhub-api/pkg/videoroom"
)

// @title TutorHub API
// @version 1.0.0
// @description Tutoring scheduling service: availability checks, lessons, time-off handling and derived lesson status
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		// Redis is an accelerator, not a dependency: the cache service
		// degrades to pass-through when the client is absent.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	timeOffRepo := repository.NewTimeOffRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	moduleRepo := repository.NewModuleRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, 0, logr, redisClient != nil)
	roomClient := videoroom.NewClient(cfg.VideoRoom)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	tutorSvc := service.NewTutorService(tutorRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, lessonRepo, timeOffRepo, tutorRepo, metricsSvc, validate, logr, cfg.Scheduling.MaxAlternatives)
	lessonSvc := service.NewLessonService(lessonRepo, availabilitySvc, validate, logr)
	statusSvc := service.NewLessonStatusService(lessonRepo, attendanceRepo, homeworkRepo, metricsSvc, logr, cfg.Scheduling.StatusBatchSize)
	recordsSvc := service.NewLessonRecordsService(lessonRepo, attendanceRepo, homeworkRepo, validate, logr)
	timeOffSvc := service.NewTimeOffService(timeOffRepo, lessonRepo, tutorRepo, roomClient, validate, logr)
	orderingSvc := service.NewModuleOrderingService(moduleRepo, cacheRepo, logr, cfg.ModuleOrdering.CacheTTL, cfg.ModuleOrdering.Enabled)
	exportSvc := service.NewExportService(lessonRepo, tutorRepo, logr, cfg.Exports.Enabled)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	tutorHandler := handler.NewTutorHandler(tutorSvc, exportSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, orderingSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc, cfg.Scheduling.CheckTimeout)
	lessonHandler := handler.NewLessonHandler(lessonSvc, statusSvc, cacheSvc)
	recordsHandler := handler.NewLessonRecordsHandler(recordsSvc, cacheSvc)
	timeOffHandler := handler.NewTimeOffHandler(timeOffSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTutor)

	tutors := authed.Group("/tutors")
	{
		tutors.GET("", tutorHandler.List)
		tutors.POST("", adminOnly, tutorHandler.Create)
		tutors.GET("/:id", tutorHandler.Get)
		tutors.PUT("/:id", adminOnly, tutorHandler.Update)
		tutors.DELETE("/:id", adminOnly, tutorHandler.Deactivate)

		tutors.GET("/:id/availability", availabilityHandler.ListWindows)
		tutors.POST("/:id/availability", staff, availabilityHandler.AddWindow)
		tutors.DELETE("/:id/availability/:windowId", staff, availabilityHandler.RemoveWindow)

		tutors.GET("/:id/schedule/export", staff, tutorHandler.ExportSchedule)
	}

	students := authed.Group("/students")
	{
		students.GET("", staff, studentHandler.List)
		students.POST("", adminOnly, studentHandler.Create)
		students.GET("/:id", studentHandler.Get)
		students.PUT("/:id", adminOnly, studentHandler.Update)
		students.DELETE("/:id", adminOnly, studentHandler.Deactivate)

		students.GET("/:id/module-order", studentHandler.ModuleOrder)
	}

	lessons := authed.Group("/lessons")
	{
		lessons.GET("", lessonHandler.List)
		lessons.POST("", staff, lessonHandler.Create)

		// Static /status segment takes priority over /:id in gin's tree.
		lessons.GET("/status/attendance", lessonHandler.AttendanceStatus)
		lessons.GET("/status/completion", lessonHandler.CompletionStatus)

		lessons.GET("/:id", lessonHandler.Get)
		lessons.PUT("/:id", staff, lessonHandler.Update)
		lessons.PATCH("/:id/status", staff, lessonHandler.UpdateStatus)

		lessons.GET("/:id/attendance", recordsHandler.ListAttendance)
		lessons.PUT("/:id/attendance", staff, recordsHandler.MarkAttendance)
		lessons.GET("/:id/homework", recordsHandler.ListHomework)
		lessons.POST("/:id/homework", staff, recordsHandler.AddHomework)
	}

	availability := authed.Group("/availability")
	{
		availability.POST("/check", availabilityHandler.Check)
		availability.GET("/alternatives", availabilityHandler.Alternatives)
	}

	authed.GET("/system/metrics", adminOnly, func(c *gin.Context) {
		c.JSON(http.StatusOK, metricsSvc.Snapshot())
	})

	timeOff := authed.Group("/time-off")
	{
		timeOff.GET("", timeOffHandler.List)
		timeOff.POST("", staff, timeOffHandler.Create)
		timeOff.PATCH("/:id/status", adminOnly, timeOffHandler.UpdateStatus)
		timeOff.DELETE("/:id", staff, timeOffHandler.Delete)
		timeOff.POST("/resolutions", adminOnly, timeOffHandler.Resolve)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
