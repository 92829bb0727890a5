package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/userbook/userbook/internal/config"
	"github.com/userbook/userbook/internal/database"
	"github.com/userbook/userbook/internal/metrics"
	"github.com/userbook/userbook/internal/users"
	"github.com/userbook/userbook/internal/web"
)

const (
	requestIDHeader = "X-Request-Id"
	shutdownTimeout = 30 * time.Second
)

// AppState holds all application services
type AppState struct {
	Logger      *zap.Logger
	Config      *config.Config
	DB          *bun.DB // nil when running on the in-memory store
	UserService users.UserService
	Health      *database.HealthManager
	Metrics     *metrics.Metrics
}

type options struct {
	memory  bool
	migrate bool
}

func main() {
	var opts options
	flag.BoolVar(&opts.memory, "memory", false, "keep users in memory instead of PostgreSQL")
	flag.BoolVar(&opts.migrate, "migrate", true, "create missing tables and indexes on startup")
	flag.Parse()

	config.Load()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("env", config.App().Env),
		zap.Bool("memory", opts.memory))

	ctx := context.Background()
	as, err := newAppState(ctx, logger, opts)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	if err := as.Health.StartupHealthCheck(ctx); err != nil {
		logger.Fatal("Startup health check failed", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := setupRouter(as)
	if err != nil {
		logger.Fatal("Failed to set up router", zap.Error(err))
	}

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := setupSignalHandler(as, server, logger)

	logger.Info("Starting userbook server", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState wires the store selected by opts into the user service
func newAppState(ctx context.Context, logger *zap.Logger, opts options) (*AppState, error) {
	as := &AppState{
		Logger:  logger,
		Config:  config.Get(),
		Health:  database.NewHealthManager(logger),
		Metrics: metrics.New(),
	}

	if opts.memory {
		logger.Warn("Using in-memory user store; data is lost on restart")
		as.UserService = users.NewUserService(users.NewInMemoryStore(), logger)
		return as, nil
	}

	conn := config.Postgres().Active(config.App().Env)
	logger.Info("Database configuration",
		zap.String("host", conn.Host),
		zap.Int("port", conn.Port),
		zap.String("database", conn.Database),
		zap.String("user", conn.User),
		zap.Bool("production", config.App().IsProduction()))

	db, err := database.Open(ctx, conn, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.migrate {
		if err := database.Migrate(ctx, db, users.Models(), users.Indexes); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.Info("Database schema is up to date")
	}

	as.DB = db
	as.UserService = users.NewUserService(users.NewPostgresStore(db), logger)
	as.Health.AddChecker(database.NewDatabaseHealthChecker(db))
	as.Health.AddChecker(database.NewConfigHealthChecker(conn))

	return as, nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupRouter(as *AppState) (*gin.Engine, error) {
	router := gin.New()

	router.Use(CORSHeadersMiddleware(as.Config))
	router.Use(cors.New(corsConfig(as.Config)))
	router.Use(RequestLoggingMiddleware(as.Logger))
	router.Use(gin.Recovery())
	router.Use(as.Metrics.Middleware())

	router.GET("/health", healthHandler(as))
	router.GET("/metrics", gin.WrapH(as.Metrics.Handler()))

	api := router.Group("/")
	api.Use(BodyLimitMiddleware(as.Config.Common.Http.MaxRequestSize))
	users.NewUserHandlers(as.UserService, as.Logger).RegisterRoutes(api)

	frontend, err := web.NewFrontend("api", as.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load front-end: %w", err)
	}
	frontend.SetupRoutes(router)

	return router, nil
}

func corsConfig(c *config.Config) cors.Config {
	cfg := c.Common.Cors

	cc := cors.Config{
		AllowMethods: cfg.AllowMethods,
		AllowHeaders: cfg.AllowHeaders,
		MaxAge:       time.Duration(cfg.MaxAge) * time.Second,
	}

	if allowsAllOrigins(cfg.AllowOrigins) {
		cc.AllowAllOrigins = true
		return cc
	}
	cc.AllowOrigins = cfg.AllowOrigins
	return cc
}

func allowsAllOrigins(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// CORSHeadersMiddleware stamps the allow-lists on every response. cors.New only
// sends them on preflight, and only when the request carries an Origin header.
func CORSHeadersMiddleware(c *config.Config) gin.HandlerFunc {
	cfg := c.Common.Cors
	methods := strings.Join(cfg.AllowMethods, ", ")
	headers := strings.Join(cfg.AllowHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)
	allowAll := allowsAllOrigins(cfg.AllowOrigins)

	return func(ctx *gin.Context) {
		if allowAll {
			ctx.Header("Access-Control-Allow-Origin", "*")
		}
		ctx.Header("Access-Control-Allow-Methods", methods)
		ctx.Header("Access-Control-Allow-Headers", headers)
		ctx.Header("Access-Control-Max-Age", maxAge)
		ctx.Next()
	}
}

func healthHandler(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := as.Health.RuntimeHealthCheck(c.Request.Context())

		status := http.StatusOK
		services := gin.H{}
		for name, err := range results {
			if err != nil {
				status = http.StatusServiceUnavailable
				as.Logger.Warn("Health check failed", zap.String("service", name), zap.Error(err))
				services[name] = "unhealthy"
				continue
			}
			services[name] = "healthy"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":    state,
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  services,
		})
	}
}

// RequestLoggingMiddleware tags every request with an id and logs its outcome
func RequestLoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("action", c.Query("action")),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(startTime)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Info("Request rejected", fields...)
		default:
			logger.Debug("Request completed", fields...)
		}
	}
}

// BodyLimitMiddleware caps request bodies at limit bytes
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		if as.DB != nil {
			if err := as.DB.Close(); err != nil {
				logger.Error("Error closing database", zap.Error(err))
			}
		}

		done <- struct{}{}
	}()

	return done
}
