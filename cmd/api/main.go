package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/xyz-school/portal-api/api/swagger"
	"github.com/xyz-school/portal-api/internal/handler"
	"github.com/xyz-school/portal-api/internal/middleware"
	"github.com/xyz-school/portal-api/internal/models"
	"github.com/xyz-school/portal-api/internal/repository"
	"github.com/xyz-school/portal-api/internal/service"
	"github.com/xyz-school/portal-api/pkg/cache"
	"github.com/xyz-school/portal-api/pkg/config"
	"github.com/xyz-school/portal-api/pkg/database"
	"github.com/xyz-school/portal-api/pkg/logger"
	corsmiddleware "github.com/xyz-school/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/xyz-school/portal-api/pkg/middleware/requestid"
)

// @title XYZ School Portal API
// @version 1.0.0
// @description Administrative backend for enrollment, courses and course assignment
// @BasePath /api
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories
	academicYearRepo := repository.NewAcademicYearRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	userRepo := repository.NewUserRepository(db)
	ebookRepo := repository.NewEbookRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	academicYearService := service.NewAcademicYearService(academicYearRepo, cacheService, nil, logr)
	courseService := service.NewCourseService(courseRepo, userRepo, cacheService, nil, logr)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, cacheService, nil, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, academicYearRepo, cacheService, nil, logr)
	userService := service.NewUserService(userRepo, cacheService, nil, logr)
	ebookService := service.NewEbookService(ebookRepo, cacheService, nil, logr)
	lessonService := service.NewLessonService(lessonRepo, courseRepo, cacheService, nil, logr)
	exportService := service.NewExportService(enrollmentRepo, assignmentRepo, logr, cfg.Exports.Enabled)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, cfg.Session)
	academicYearHandler := handler.NewAcademicYearHandler(academicYearService)
	courseHandler := handler.NewCourseHandler(courseService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	userHandler := handler.NewUserHandler(userService)
	ebookHandler := handler.NewEbookHandler(ebookService)
	lessonHandler := handler.NewLessonHandler(lessonService)
	exportHandler := handler.NewExportHandler(exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerAreaRoutes(r, authService, cfg.Session.CookieName)
	registerAPIRoutes(r, cfg, authService, authHandler, academicYearHandler, courseHandler,
		enrollmentHandler, assignmentHandler, userHandler, ebookHandler, lessonHandler, exportHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

// registerAreaRoutes mounts the browser-facing area pages behind the session
// guard. The pages themselves carry no content; the redirects are the contract.
func registerAreaRoutes(r *gin.Engine, authService *service.AuthService, cookieName string) {
	guard := middleware.Guard(authService, cookieName)

	areaPage := func(area string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"area": area})
		}
	}

	r.GET("/", guard, areaPage("login"))
	r.GET("/superadmin", guard, areaPage("superadmin"))
	r.GET("/administrative", guard, areaPage("administrative"))
	r.GET("/faculty", guard, areaPage("faculty"))
	r.GET("/author", guard, areaPage("author"))
}

func registerAPIRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	academicYearHandler *handler.AcademicYearHandler,
	courseHandler *handler.CourseHandler,
	enrollmentHandler *handler.EnrollmentHandler,
	assignmentHandler *handler.AssignmentHandler,
	userHandler *handler.UserHandler,
	ebookHandler *handler.EbookHandler,
	lessonHandler *handler.LessonHandler,
	exportHandler *handler.ExportHandler,
) {
	api := r.Group("/api")

	api.POST("/auth/login", authHandler.Login)

	// Public profile projection: no session required, but one is attached
	// when the caller presents a valid token.
	api.GET("/get-user/:id", middleware.OptionalJWT(authService, cfg.Session.CookieName), userHandler.Get)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService, cfg.Session.CookieName))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	admin := middleware.RequireRoles(models.RoleSuperAdmin, models.RolePrincipal, models.RoleRegistrar)
	superadmin := middleware.RequireRoles(models.RoleSuperAdmin)
	author := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAuthor)

	years := authed.Group("/academic_year")
	{
		years.GET("", academicYearHandler.List)
		years.GET("/active", academicYearHandler.GetActive)
		years.GET("/:id", academicYearHandler.Get)
		years.POST("", admin, academicYearHandler.Create)
		years.PUT("/:id", admin, academicYearHandler.Update)
		years.DELETE("/:id", admin, academicYearHandler.Delete)
	}

	courses := authed.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/teachers", courseHandler.ListFaculty)
		courses.GET("/faculty/:term/:faculty_id", courseHandler.ListByFaculty)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", admin, courseHandler.Create)
		courses.PUT("/:id", admin, courseHandler.Update)
		courses.DELETE("/:id", admin, courseHandler.Delete)
	}

	enroll := authed.Group("/enroll-student")
	{
		enroll.GET("", enrollmentHandler.List)
		enroll.GET("/term/:term", enrollmentHandler.ListByTerm)
		enroll.GET("/:id", enrollmentHandler.Get)
		enroll.POST("", admin, enrollmentHandler.Enroll)
		enroll.PUT("/:id", admin, enrollmentHandler.Update)
		enroll.DELETE("/:id", admin, enrollmentHandler.Delete)
	}

	assign := authed.Group("/assign-course")
	{
		assign.GET("", assignmentHandler.ListUnassigned)
		assign.GET("/enrolled/:studentId", assignmentHandler.ListByStudent)
		assign.GET("/default-term", assignmentHandler.DefaultTerm)
		assign.POST("", admin, assignmentHandler.Assign)
		assign.DELETE("/:id", admin, assignmentHandler.Delete)
	}

	users := authed.Group("/users")
	{
		users.GET("", superadmin, userHandler.List)
		users.POST("", superadmin, userHandler.Create)
		users.GET("/update/:id", superadmin, userHandler.GetForEdit)
		users.PUT("/update/:id", superadmin, userHandler.Update)
		users.DELETE("/:id", superadmin, userHandler.Deactivate)
	}

	if cfg.Ebooks.Enabled {
		ebooks := authed.Group("/ebooks")
		{
			ebooks.GET("", ebookHandler.List)
			ebooks.GET("/:id", ebookHandler.Get)
			ebooks.POST("", author, ebookHandler.Create)
			ebooks.PUT("/:id", author, ebookHandler.Update)
			ebooks.DELETE("/:id", author, ebookHandler.Delete)
		}

		lessons := authed.Group("/lessons")
		{
			lessons.GET("", lessonHandler.List)
			lessons.GET("/:id", lessonHandler.Get)
			lessons.POST("", author, lessonHandler.Create)
			lessons.PUT("/:id", author, lessonHandler.Update)
			lessons.DELETE("/:id", author, lessonHandler.Delete)
		}
	}

	exports := authed.Group("/export", admin)
	{
		exports.GET("/enrollments", exportHandler.EnrollmentRoster)
		exports.GET("/students/:studentId/courses", exportHandler.StudentAssignments)
	}
}
