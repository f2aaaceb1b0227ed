package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/javokhirdev/newsline-backend/api/controllers"
	"github.com/javokhirdev/newsline-backend/api/routes"
	"github.com/javokhirdev/newsline-backend/internal/auth"
	"github.com/javokhirdev/newsline-backend/internal/news"
	"github.com/javokhirdev/newsline-backend/internal/uploads"
	"github.com/javokhirdev/newsline-backend/internal/users"
	"github.com/javokhirdev/newsline-backend/pkg/auth/session"
	"github.com/javokhirdev/newsline-backend/pkg/config"
	"github.com/javokhirdev/newsline-backend/pkg/db"
	"github.com/javokhirdev/newsline-backend/pkg/logger"
	"github.com/javokhirdev/newsline-backend/pkg/migrate"
	"github.com/javokhirdev/newsline-backend/pkg/redis"
	"github.com/javokhirdev/newsline-backend/pkg/storage/disk"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	fileStore, err := disk.New(cfg.Uploads)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare uploads directory", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	uploadRepo := uploads.NewRepository(dbClient.DB())
	newsRepo := news.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterParams{
		DB:       dbClient,
		Password: cfg.Password,
		Admin:    cfg.Admin,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Repo:     userRepo,
		Uploads:  uploadRepo,
		Password: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	binder, err := uploads.NewBinder(uploadRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media binder", err)
		os.Exit(1)
	}

	newsService, err := news.NewService(news.ServiceParams{
		Logger:  logg,
		DB:      dbClient,
		Repo:    newsRepo,
		Authors: userRepo,
		Binder:  binder,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create news service", err)
		os.Exit(1)
	}

	intakeService, err := uploads.NewIntakeService(uploads.IntakeParams{
		Repo:    uploadRepo,
		Files:   fileStore,
		Logger:  logg,
		Uploads: cfg.Uploads,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create upload intake service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Sessions: sessionManager,
			Pingers: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			AuthService:     authService,
			RegisterService: registerService,
			UsersService:    usersService,
			NewsService:     newsService,
			IntakeService:   intakeService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
