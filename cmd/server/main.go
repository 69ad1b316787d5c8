package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ontime/backend/config"
	"github.com/ontime/backend/internal/attendance"
	"github.com/ontime/backend/internal/auth"
	"github.com/ontime/backend/internal/courses"
	"github.com/ontime/backend/internal/enrollments"
	"github.com/ontime/backend/internal/middleware"
	"github.com/ontime/backend/internal/qrcode"
	"github.com/ontime/backend/internal/realtime"
	"github.com/ontime/backend/pkg/database"
	"github.com/ontime/backend/pkg/queue"
	"github.com/ontime/backend/pkg/redis"
	"github.com/ontime/backend/pkg/response"
	"github.com/ontime/backend/pkg/storage"
)

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func main() {
	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	jobs := queue.NewQueue(rdb.Client, logger)

	var images *storage.S3
	if cfg.AWS.AccessKeyID != "" {
		images, err = storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ImagesBucket:    cfg.AWS.ImagesBucket,
		}, logger)
		if err != nil {
			logger.Fatal("failed to create s3 client", zap.Error(err))
		}
	} else {
		logger.Warn("S3 not configured, profile image uploads disabled")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	authRepo := auth.NewRepository(pool)
	courseRepo := courses.NewRepository(pool)
	enrollRepo := enrollments.NewRepository(pool)
	attendanceRepo := attendance.NewRepository(pool)

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	authHandler := auth.NewHandler(authRepo, jwtService, jobs, images, logger)
	courseHandler := courses.NewHandler(courseRepo, logger)
	enrollHandler := enrollments.NewHandler(enrollRepo, courseRepo, logger)
	attendanceHandler := attendance.NewHandler(attendanceRepo, hub, logger)
	qrHandler := qrcode.NewHandler(courseRepo, attendanceRepo, rdb, cfg.Client.URL, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	authRequired := middleware.JWT(jwtService)
	lecturerOnly := middleware.RequireLecturer()

	users := router.Group("/api/users")
	{
		users.POST("", authHandler.RegisterStudent)
		users.POST("/lecturer", authHandler.RegisterLecturer)
		users.POST("/auth", authHandler.Login)
		users.POST("/logout", authHandler.Logout)
		users.POST("/reset-password", authHandler.ResetPassword)
		users.POST("/verify-code", authHandler.VerifyCode)
		users.POST("/update-password/:id/:code", authHandler.UpdateNewPassword)

		users.PUT("/profile", authRequired, authHandler.UpdateProfile)
		users.PUT("/password", authRequired, authHandler.UpdatePassword)
		users.PUT("/image", authRequired, authHandler.UploadImage)
	}

	coursesGroup := router.Group("/api/courses", authRequired)
	{
		coursesGroup.POST("/lecturers", lecturerOnly, courseHandler.Create)
		coursesGroup.GET("/lecturers", lecturerOnly, courseHandler.ListOwn)
		coursesGroup.GET("/lecturers/:id", lecturerOnly, courseHandler.GetOwn)
		coursesGroup.GET("/students", courseHandler.ListAll)
		coursesGroup.GET("/students/:id", courseHandler.Get)
		coursesGroup.POST("/students", enrollHandler.Enroll)
		coursesGroup.GET("/students/mine", enrollHandler.ListMine)
	}

	router.POST("/api/qrcode/generate/:courseId", authRequired, lecturerOnly, qrHandler.Generate)

	attendanceGroup := router.Group("/api/attendance", authRequired)
	{
		attendanceGroup.POST("/:courseId/mark-as-attended/:date", attendanceHandler.Mark)
		attendanceGroup.GET("/:courseId", attendanceHandler.ListHistory)
		attendanceGroup.GET("/:courseId/class/dates", lecturerOnly, attendanceHandler.ListDates)
		attendanceGroup.GET("/:courseId/:date", lecturerOnly, attendanceHandler.ListAttendees)
	}

	router.GET("/ws/attendance/:courseId", realtime.ServeWS(hub, jwtService, courseRepo, logger))

	router.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			response.Internal(c, "database unreachable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
