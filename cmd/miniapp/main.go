package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgstore "github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/db/postgres"
	rediscache "github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/db/redis"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/telegram"
	transportHTTP "github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/transport/http"
	httpmw "github.com/Acceptto/telegram-miniapp-scaffold/internal/adapters/transport/http/middleware"
	appsvc "github.com/Acceptto/telegram-miniapp-scaffold/internal/app/miniapp/service"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/auth/initdata"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/infra/config"
	lg "github.com/Acceptto/telegram-miniapp-scaffold/internal/infra/log"
	"github.com/Acceptto/telegram-miniapp-scaffold/internal/infra/migrate"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	store := pgstore.NewStore(db)

	var cache appsvc.SessionCache
	if cfg.RedisAddress != "" {
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		cache = rediscache.NewSessionCache(redisCli)
	}

	verifier, err := initdata.NewVerifier(cfg.TelegramBotToken)
	if err != nil {
		zapLog.Fatal("failed to init verifier", zap.Error(err))
	}

	bot := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramUseTestAPI)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	botName, err := appsvc.ResolveBotName(startupCtx, store, bot, zapLog)
	cancelStartup()
	if err != nil {
		zapLog.Fatal("failed to resolve bot name", zap.Error(err))
	}
	zapLog.Info("bot name resolved", zap.String("bot_name", botName))

	validate := validator.New()

	svc := appsvc.New(store, cache, verifier, bot, botName, cfg.SessionTTL, validate, zapLog)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))
	router.Use(httpmw.NewRateLimitPerIP(50, 100, 10_000, time.Hour))

	corsConfig := cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        24 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	transportHTTP.NewHandler(svc, cfg.InitSecret, zapLog).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
