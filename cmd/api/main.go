package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
	"campusattend/internal/config"
	"campusattend/internal/httpmiddleware"
	"campusattend/internal/location"
	"campusattend/internal/queue"
	"campusattend/internal/report"
	"campusattend/internal/session"
	"campusattend/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := store.EnsureSchema(ctx, db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.ReportQueueKey)
	}

	locationRepo := location.NewRepository(db.Client)
	sessionRepo := session.NewRepository(db.Client)
	attendanceRepo := attendance.NewRepository(db.Client)
	reportRepo := report.NewRepository(db.Client)

	srv := &api{
		cfg:        cfg,
		queue:      q,
		locations:  location.NewService(locationRepo),
		sessions:   session.NewService(sessionRepo, locationRepo),
		attendance: attendance.NewService(attendanceRepo, sessionRepo, locationRepo),
		reports:    report.NewService(reportRepo),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		ctx := c.Request.Context()
		dbHealthy := db.Client.PingContext(ctx) == nil
		redisHealthy := redisClient.Healthy(ctx)
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	r.POST("/v1/auth/token", srv.issueToken)

	authGroup := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.POST("/locations", srv.createLocation)
	authGroup.GET("/locations", srv.listLocations)
	authGroup.POST("/locations/verify", srv.verifyLocation)
	authGroup.GET("/locations/:id", srv.getLocation)
	authGroup.PUT("/locations/:id", srv.updateLocation)
	authGroup.DELETE("/locations/:id", srv.deleteLocation)

	authGroup.POST("/sessions", srv.openSession)
	authGroup.GET("/sessions", srv.listSessions)
	authGroup.GET("/sessions/teacher", srv.listTeacherSessions)
	authGroup.GET("/sessions/active/student", srv.listActiveSessions)
	authGroup.GET("/sessions/:id", srv.getSession)
	authGroup.PUT("/sessions/:id", srv.updateSession)
	authGroup.PUT("/sessions/:id/close", srv.closeSession)
	authGroup.PUT("/sessions/:id/verify-attendance", srv.verifyAllPending)
	authGroup.DELETE("/sessions/:id", srv.deleteSession)
	authGroup.GET("/sessions/:id/attendance", srv.listSessionAttendance)

	authGroup.POST("/attendance/checkin", srv.checkIn)
	authGroup.GET("/attendance", srv.listAttendance)
	authGroup.POST("/attendance", srv.adminCreateAttendance)
	authGroup.GET("/attendance/student/history", srv.studentHistory)
	authGroup.GET("/attendance/student/stats", srv.studentStats)
	authGroup.GET("/attendance/teacher/report", srv.teacherReport)
	authGroup.GET("/attendance/teacher/summary", srv.teacherSummary)
	authGroup.GET("/attendance/admin/report", srv.overallReport)
	authGroup.POST("/attendance/admin/send-reports", srv.sendGuardianReports)
	authGroup.GET("/attendance/:id", srv.getAttendance)
	authGroup.PUT("/attendance/:id", srv.setAttendanceStatus)
	authGroup.DELETE("/attendance/:id", srv.deleteAttendance)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// api holds the wired services behind the HTTP handlers.
type api struct {
	cfg        config.App
	queue      queue.Queue
	locations  *location.Service
	sessions   *session.Service
	attendance *attendance.Service
	reports    *report.Service
}

// issueToken mints a dev JWT for a known subject and role. Identity is
// managed outside this service; this endpoint stands in for the real
// issuer in local and test environments.
func (a *api) issueToken(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required"`
		Role   string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := auth.Issue(req.UserID, req.Role, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, a.cfg.AccessTTL, a.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
