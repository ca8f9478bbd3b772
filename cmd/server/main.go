package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roster/internal/api"
	"roster/internal/auth"
	"roster/internal/config"
	"roster/internal/httpmiddleware"
	"roster/internal/roster"
	"roster/internal/store"
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

	// Record store: Postgres by default, in-memory for dev.
	var (
		recordStore roster.RecordStore
		db          *store.DB
		seed        func(ctx context.Context, username, hash string) error
	)
	if cfg.StoreBackend == "memory" {
		mem := roster.NewMemStore()
		recordStore = mem
		seed = func(ctx context.Context, username, hash string) error {
			_, err := mem.CreateAccount(ctx, username, hash)
			return err
		}
		log.Println("using in-memory record store")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := roster.NewRepository(db.Client)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		recordStore = repo
		seed = repo.SeedAccount
	}

	if err := seedAccounts(ctx, seed, cfg.SeedAccounts); err != nil {
		return err
	}

	// Session store: in-memory (volatile) or Redis.
	var (
		sessions    auth.Store
		redisClient *store.Redis
	)
	if cfg.SessionBackend == "redis" {
		redisClient = store.NewRedis(cfg.RedisAddr)
		sessions = auth.NewRedisStore(redisClient.Client, "")
	} else {
		sessions = auth.NewMemoryStore(cfg.SessionTTL)
	}

	svc := roster.NewService(recordStore)
	h := api.New(svc, sessions, cfg.SessionTTL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())
	r.Use(countRequests())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db == nil || db.Client.PingContext(c.Request.Context()) == nil
		redisHealthy := redisClient == nil || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
	})

	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// seedAccounts ensures the configured "user:pass" accounts exist, hashing
// each password before it touches the store.
func seedAccounts(ctx context.Context, seed func(context.Context, string, string) error, pairs string) error {
	for _, pair := range strings.Split(pairs, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		username, password, ok := strings.Cut(pair, ":")
		if !ok || username == "" || password == "" {
			log.Printf("skipping malformed seed account %q", pair)
			continue
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		if err := seed(ctx, username, hash); err != nil {
			return err
		}
	}
	return nil
}

var httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "roster_http_requests_total",
	Help: "HTTP requests by method, route and status.",
}, []string{"method", "path", "status"})

func init() {
	prometheus.MustRegister(httpRequests)
}

func countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
