package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/eti-mis/academics-api/api/swagger"
	"github.com/eti-mis/academics-api/internal/handler"
	"github.com/eti-mis/academics-api/internal/middleware"
	"github.com/eti-mis/academics-api/internal/models"
	"github.com/eti-mis/academics-api/internal/repository"
	"github.com/eti-mis/academics-api/internal/service"
	rediscache "github.com/eti-mis/academics-api/pkg/cache"
	"github.com/eti-mis/academics-api/pkg/config"
	"github.com/eti-mis/academics-api/pkg/database"
	"github.com/eti-mis/academics-api/pkg/logger"
	corsmiddleware "github.com/eti-mis/academics-api/pkg/middleware/cors"
	reqidmiddleware "github.com/eti-mis/academics-api/pkg/middleware/requestid"
	"github.com/eti-mis/academics-api/pkg/storage"
)

// @title Academics API
// @version 1.0.0
// @description Academic administration platform: enrollment, registration, assessment, transcripts and the academic year transition engine.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	programCourseRepo := repository.NewProgramCourseRepository(db)
	yearRepo := repository.NewAcademicYearRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	categoryRepo := repository.NewAssessmentCategoryRepository(db)
	taskRepo := repository.NewAssessmentTaskRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	bandRepo := repository.NewGradeBandRepository(db)
	requestRepo := repository.NewTranscriptRequestRepository(db)
	systemLogRepo := repository.NewSystemLogRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	transitionRepo := repository.NewTransitionRepository(db, service.NewCourseCodes(time.Now().UnixNano()), cfg.Transition.CodeAttempts)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Transcript.CacheTTL, logr, cfg.Transcript.CacheEnabled)
	authSvc := service.NewAuthService(userRepo, systemLogRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "academics-api",
	})
	userSvc := service.NewUserService(userRepo, systemLogRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, programRepo, validate, logr)
	programSvc := service.NewProgramService(programRepo, validate, logr)
	yearSvc := service.NewAcademicYearService(yearRepo, semesterRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(paymentRepo, enrollmentRepo, studentRepo, semesterRepo, systemLogRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, enrollmentRepo, semesterRepo, programCourseRepo, studentRepo, validate, logr)
	transcriptSvc := service.NewTranscriptService(assessmentRepo, studentRepo, requestRepo, cacheSvc, cfg.Transcript.CacheTTL, cfg.Grading.GPADecimals, logr)
	assessmentSvc := service.NewAssessmentService(taskRepo, assessmentRepo, categoryRepo, bandRepo, programCourseRepo, registrationRepo, transcriptSvc, cfg.Grading.ScoreDecimals, validate, logr)
	transitionSvc := service.NewTransitionService(yearRepo, programRepo, studentRepo, semesterRepo, transitionRepo, systemLogRepo, logr)
	lockSvc := service.NewSystemLockService(redisClient, systemLogRepo, logr)
	systemLogSvc := service.NewSystemLogService(systemLogRepo, logr)
	exportSvc := service.NewExportService(nil, nil, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Export.URLSecret, cfg.Export.URLTTL)
	exportJobSvc := service.NewExportJobService(transcriptSvc, studentRepo, exportSvc, exportStore, exportSigner, cfg.Export.Workers, logr)
	exportJobSvc.Start(context.Background())
	defer exportJobSvc.Stop()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	programHandler := handler.NewProgramHandler(programSvc)
	yearHandler := handler.NewAcademicYearHandler(yearSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc, studentSvc, exportSvc)
	transitionHandler := handler.NewTransitionHandler(transitionSvc, lockSvc, metricsSvc, cfg.Transition.RequireSystemLock)
	systemHandler := handler.NewSystemHandler(lockSvc, systemLogSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	secured := api.Group("", middleware.JWT(authSvc))

	users := secured.Group("/users", middleware.RequireRoles(models.RoleAdmin))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:id", userHandler.Get)
		users.PUT("/:id", userHandler.Update)
		users.DELETE("/:id", userHandler.Delete)
	}

	years := secured.Group("/academic-years", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(systemLogRepo, models.LogCategorySystem))
	{
		years.POST("", yearHandler.Create)
		years.GET("", yearHandler.List)
		years.PUT("/:id/ready", yearHandler.MarkReady)
		years.PUT("/:id/activate", yearHandler.Activate)
		years.GET("/:id/semesters", yearHandler.ListSemesters)
	}
	secured.POST("/semesters", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(systemLogRepo, models.LogCategorySystem), yearHandler.CreateSemester)

	programs := secured.Group("/programs")
	{
		programs.GET("", programHandler.List)
		programs.GET("/:id", programHandler.Get)
		programs.GET("/:id/levels", programHandler.Levels)
		programs.GET("/:id/courses", programHandler.Courses)

		admin := programs.Group("", middleware.RequireRoles(models.RoleAdmin), middleware.Audit(systemLogRepo, models.LogCategorySystem))
		admin.POST("", programHandler.Create)
		admin.POST("/:id/courses", programHandler.AddCourse)
		admin.POST("/:id/transition", transitionHandler.Run)
	}

	secured.GET("/me/student", studentHandler.Me)

	students := secured.Group("/students")
	{
		students.POST("", middleware.RequireRoles(models.RoleAdmin), studentHandler.Create)
		students.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleLecturer), studentHandler.List)

		staffOrSelf := middleware.StaffOrOwnStudent(studentRepo, models.RoleAdmin, models.RoleDean, models.RoleLecturer)
		students.GET("/:id", staffOrSelf, studentHandler.Get)
		students.GET("/:id/payments", staffOrSelf, enrollmentHandler.Payments)
		students.GET("/:id/enrollment", staffOrSelf, enrollmentHandler.Current)
		students.GET("/:id/enrollments", staffOrSelf, enrollmentHandler.History)
		students.GET("/:id/transcript", staffOrSelf, transcriptHandler.Get)
		students.GET("/:id/transcript/export", staffOrSelf, transcriptHandler.Export)
		students.POST("/:id/transcript/requests", staffOrSelf, middleware.Audit(systemLogRepo, models.LogCategoryAssessment), transcriptHandler.RequestSnapshot)
	}

	payments := secured.Group("/payments", middleware.RequireRoles(models.RoleAdmin), middleware.StudentWriteFreeze(lockSvc))
	{
		payments.POST("", enrollmentHandler.RecordPayment)
		payments.PUT("/:id/verify", enrollmentHandler.VerifyPayment)
	}

	registrations := secured.Group("/registrations", middleware.StudentWriteFreeze(lockSvc))
	{
		registrations.POST("", middleware.RBAC("ADMIN", "STUDENT"), middleware.Audit(systemLogRepo, models.LogCategoryRegistration), registrationHandler.Submit)
		registrations.GET("/:id", registrationHandler.Get)
		registrations.PUT("/:id/review", middleware.RequireRoles(models.RoleAdmin, models.RoleDean), middleware.Audit(systemLogRepo, models.LogCategoryRegistration), registrationHandler.Review)
	}

	tasks := secured.Group("/assessment-tasks", middleware.RequireRoles(models.RoleAdmin, models.RoleDean, models.RoleLecturer))
	{
		tasks.POST("", middleware.Audit(systemLogRepo, models.LogCategoryAssessment), assessmentHandler.CreateTask)
		tasks.GET("", assessmentHandler.ListTasks)
		tasks.GET("/:id/scores", assessmentHandler.ListScores)
		tasks.PUT("/:id/scores", middleware.Audit(systemLogRepo, models.LogCategoryAssessment), assessmentHandler.SaveScore)
	}
	secured.GET("/assessments/final", assessmentHandler.FinalRecord)

	requests := secured.Group("/transcript-requests", middleware.RequireRoles(models.RoleAdmin, models.RoleDean))
	{
		requests.GET("", transcriptHandler.ListRequests)
		requests.PUT("/:id/review", middleware.Audit(systemLogRepo, models.LogCategoryAssessment), transcriptHandler.ReviewRequest)
		requests.GET("/:id/snapshot", transcriptHandler.Snapshot)
	}

	exports := secured.Group("/exports", middleware.RequireRoles(models.RoleAdmin, models.RoleDean))
	{
		exports.POST("", exportHandler.Create)
		exports.GET("/:id", exportHandler.Get)
	}
	r.GET("/downloads", exportHandler.Download)

	system := secured.Group("/system", middleware.RequireRoles(models.RoleAdmin))
	{
		system.GET("/lock", systemHandler.LockState)
		system.PUT("/lock", systemHandler.EngageLock)
		system.DELETE("/lock", systemHandler.ReleaseLock)
		system.GET("/logs", systemHandler.Logs)
		system.GET("/status", systemHandler.Status)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
