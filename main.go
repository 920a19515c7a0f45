package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/cppla/inkpost/auth"
	"github.com/cppla/inkpost/config"
	"github.com/cppla/inkpost/repository"
	"github.com/cppla/inkpost/routes"
	"github.com/cppla/inkpost/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Initialize logger early
	logger, err := utils.InitLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		TTL:       cfg.AccessTokenTTL(),
	})
	if err != nil {
		logger.Fatal("invalid token settings", zap.Error(err))
	}
	hasher, err := auth.NewHasher(cfg.PasswordHasher)
	if err != nil {
		logger.Fatal("invalid password hasher", zap.Error(err))
	}

	db, err := config.OpenDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}

	accessLogger, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		logger.Warn("access log unavailable, using app logger", zap.Error(err))
		accessLogger = logger
	}

	r, err := routes.SetupRouter(routes.Dependencies{
		Config:       cfg,
		Store:        repository.NewGormStore(db),
		Hasher:       hasher,
		Codec:        codec,
		Cache:        utils.NewCache(utils.NewRedisClient(cfg), cfg.CacheTTL()),
		Logger:       logger,
		AccessLogger: accessLogger,
	})
	if err != nil {
		logger.Fatal("router setup failed", zap.Error(err))
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
