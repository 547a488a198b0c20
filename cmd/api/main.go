package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"emergency-aid/internal/config"
	"emergency-aid/internal/db"
	apihttp "emergency-aid/internal/http"
	"emergency-aid/internal/pharmaid"
	"emergency-aid/internal/repository"
	"emergency-aid/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	patientRepo := repository.NewPgPatientRepository(pool)

	pharmaHTTP := &http.Client{Timeout: time.Duration(cfg.PharmaIDTimeoutSeconds) * time.Second}
	sessions := pharmaid.NewSessionManager(cfg.PharmaIDBaseURL, cfg.PharmaIDEmail, cfg.PharmaIDPassword, pharmaHTTP, logger)
	if err := sessions.Login(ctx); err != nil {
		// El servicio arranca igual; las llamadas fallan hasta un login exitoso.
		logger.Error("pharmaid startup login failed", zap.Error(err))
	}
	pharmaClient := pharmaid.NewClient(cfg.PharmaIDBaseURL, cfg.PharmaIDClientID, sessions, pharmaHTTP, logger)

	var (
		loginLimiter service.LoginRateLimiter
		tokenStore   service.RefreshTokenStore
		redisClient  *redis.Client
	)
	loginWindow := time.Duration(cfg.LoginRateWindowMinutes) * time.Minute
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, loginWindow, cfg.LoginRateLimit)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewMemoryLoginRateLimiter(loginWindow, cfg.LoginRateLimit)
	}
	jwtSvc := service.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	patientSvc := service.NewPatientService(logger, patientRepo)
	prescriptionSvc := service.NewPrescriptionService(logger, patientSvc, pharmaClient, pharmaClient)

	router := apihttp.NewRouter(
		logger,
		jwtSvc,
		apihttp.NewUserHandler(logger, userSvc, jwtSvc),
		apihttp.NewPatientHandler(logger, patientSvc, prescriptionSvc),
		apihttp.NewPharmaIDHandler(logger, sessions),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
