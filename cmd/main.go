package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-catalog/internal/handlers"
	"github.com/sbilibin2017/gw-catalog/internal/images"
	"github.com/sbilibin2017/gw-catalog/internal/jwt"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/repositories"
	"github.com/sbilibin2017/gw-catalog/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

const defaultJWTSecret = "my_super_secret_key"

// config holds everything read from the environment.
type config struct {
	AppHost      string
	AppPort      string
	LogLevel     string
	CORSOrigins  []string
	UploadDir    string
	AutoMigrate  bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PGHost         string
	PGPort         int
	PGUser         string
	PGPassword     string
	PGDB           string
	PGMaxOpenConns int
	PGMaxIdleConns int

	RedisHost         string // empty disables the token denylist
	RedisPort         int
	RedisDB           int
	RedisPassword     string
	RedisPoolSize     int
	RedisMinIdleConns int

	KafkaBrokers []string // empty disables catalog events
	KafkaTopic   string

	JWTSecretKey  string
	JWTExpiration time.Duration
}

// @title gw-catalog API
// @version 1.0.0
// @description Product catalog with image uploads and JWT-protected admin operations
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Version: %s\nCommit: %s\nBuild: %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns the
// application, database, Redis, Kafka and JWT configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}
	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}

	// Application config
	cfg.AppHost = getEnv("APP_HOST", "localhost")
	cfg.AppPort = getEnv("APP_PORT", "8080")
	cfg.LogLevel = getEnv("APP_LOG_LEVEL", "info")
	cfg.CORSOrigins = splitList(getEnv("APP_CORS_ORIGINS", "http://localhost:3000"))
	cfg.UploadDir = getEnv("APP_UPLOAD_DIR", "uploads")
	if cfg.AutoMigrate, err = strconv.ParseBool(getEnv("APP_AUTO_MIGRATE", "true")); err != nil {
		return cfg, fmt.Errorf("APP_AUTO_MIGRATE: %w", err)
	}
	readTimeout, err := getInt("APP_READ_TIMEOUT_SECOND", "15")
	if err != nil {
		return cfg, err
	}
	cfg.ReadTimeout = time.Duration(readTimeout) * time.Second
	writeTimeout, err := getInt("APP_WRITE_TIMEOUT_SECOND", "60")
	if err != nil {
		return cfg, err
	}
	cfg.WriteTimeout = time.Duration(writeTimeout) * time.Second

	// PostgreSQL config
	cfg.PGHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PGUser = getEnv("POSTGRES_USER", "user")
	cfg.PGPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.PGDB = getEnv("POSTGRES_DB", "database")
	if cfg.PGPort, err = getInt("POSTGRES_PORT", "5432"); err != nil {
		return cfg, err
	}
	if cfg.PGMaxOpenConns, err = getInt("POSTGRES_MAX_OPEN_CONNS", "16"); err != nil {
		return cfg, err
	}
	if cfg.PGMaxIdleConns, err = getInt("POSTGRES_MAX_IDLE_CONNS", "8"); err != nil {
		return cfg, err
	}

	// Redis config
	cfg.RedisHost = getEnv("REDIS_HOST", "")
	if cfg.RedisPort, err = getInt("REDIS_PORT", "6379"); err != nil {
		return cfg, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return cfg, err
	}
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	if cfg.RedisPoolSize, err = getInt("REDIS_POOL_SIZE", "10"); err != nil {
		return cfg, err
	}
	if cfg.RedisMinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", "2"); err != nil {
		return cfg, err
	}

	// Kafka config
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", ""))
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "catalog.products")

	// JWT config
	cfg.JWTSecretKey = getEnv("JWT_SECRET_KEY", defaultJWTSecret)
	jwtExpSecond, err := getInt("JWT_EXP_SECOND", "86400")
	if err != nil {
		return cfg, err
	}
	cfg.JWTExpiration = time.Duration(jwtExpSecond) * time.Second

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// run initializes the logger, database, Redis, Kafka writer and HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.LogLevel, "gw-catalog"); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	log := logger.Log
	log.Infof("Logger initialized with level %s", cfg.LogLevel)

	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY is not set, using the built-in development secret")
	}

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDB)
	log.Infof("Connecting to PostgreSQL at %s:%d/%s", cfg.PGHost, cfg.PGPort, cfg.PGDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.PGMaxOpenConns)
	db.SetMaxIdleConns(cfg.PGMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("PostgreSQL ping failed: %w", err)
	}

	if cfg.AutoMigrate {
		if err := repositories.Migrate(ctx, db); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
		log.Info("Database schema is up to date")
	}

	// Connect to Redis
	var denylist services.TokenDenylist
	if cfg.RedisHost != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis connection error: %w", err)
		}
		defer rdb.Close()
		denylist = repositories.NewTokenDenylistRepository(rdb)
	} else {
		log.Warn("REDIS_HOST is not set, logout will not revoke tokens")
	}

	// Kafka writer
	var kafkaWriter services.KafkaWriter
	if len(cfg.KafkaBrokers) > 0 {
		kw := &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBrokers...),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		}
		defer kw.Close()
		kafkaWriter = kw
		log.Infof("Publishing catalog events to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	} else {
		log.Warn("KAFKA_BROKERS is not set, catalog events are disabled")
	}

	// Image store
	store, err := images.NewStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("upload directory: %w", err)
	}

	// Initialize JWT service
	tokens := jwt.New(
		jwt.WithSecretKey(cfg.JWTSecretKey),
		jwt.WithExpiration(cfg.JWTExpiration),
	)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	productReadRepo := repositories.NewProductReadRepository(db)
	productWriteRepo := repositories.NewProductWriteRepository(db)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, tokens, denylist)
	productService := services.NewProductService(productReadRepo, productWriteRepo, store, kafkaWriter)

	r := newRouter(routerConfig{
		db:          db,
		auth:        authService,
		products:    productService,
		tokens:      tokens,
		uploadDir:   store.Dir(),
		corsOrigins: cfg.CORSOrigins,
		swaggerURL:  fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.AppHost, cfg.AppPort),
		build: handlers.BuildInfo{
			Version:   buildVersion,
			Commit:    buildCommit,
			BuildDate: buildDate,
			StartedAt: time.Now(),
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		log.Infof("HTTP server listening on %s:%s", cfg.AppHost, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	}

	log.Info("HTTP server stopped gracefully")
	return nil
}
