package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"user-auth/internal/config"
	"user-auth/internal/db"
	"user-auth/internal/email"
	apihttp "user-auth/internal/http"
	"user-auth/internal/repository"
	"user-auth/internal/service"

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

	if cfg.AutoMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	userCache := service.NewMemoryUserViewCache(cfg.UserCacheTTL)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using memory cache", zap.Error(err))
		} else {
			userCache = service.NewRedisUserViewCache(redisClient, cfg.UserCacheTTL)
		}
		cancel()
	}

	hasher := service.NewArgon2idHasher(service.Argon2Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2Memory,
		Threads: cfg.Argon2Threads,
		SaltLen: service.DefaultArgon2Params.SaltLen,
		KeyLen:  service.DefaultArgon2Params.KeyLen,
	})
	tokenSvc := service.NewTokenService(cfg.SecretKey, cfg.TokenTTL)
	authn := service.NewAuthenticator(logger, userRepo, tokenSvc, hasher)
	userSvc := service.NewUserService(logger, userRepo, hasher, emailSender, userCache, cfg.RegistrationDelay)

	userHandler := apihttp.NewUserHandler(logger, userSvc, authn, cfg.PublicBaseURL, cfg.TokenMaxTTL)
	router := apihttp.NewRouter(logger, userHandler, apihttp.AuthMiddleware(logger, authn), pool)

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

func runMigrations(databaseURL string) error {
	migrator, err := db.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Up()
}
