package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicsync-workflow/config"
	"civicsync-workflow/controllers"
	"civicsync-workflow/middlewares"
	"civicsync-workflow/repository"
	"civicsync-workflow/routes"
	"civicsync-workflow/services"
	authUtils "civicsync-workflow/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Warn("disconnect MongoDB", "error", err)
		}
	}()
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	redisClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	issueRepo := repository.NewIssueRepository(db)
	directory := repository.NewDirectory(db)
	rewardRepo := repository.NewRewardRepository(db)

	opts := []services.Option{services.WithLogger(logger)}
	dispatcher := services.NewNotificationDispatcher(
		repository.NewNotificationRepository(db),
		repository.NewRedisNotificationPublisher(redisClient),
		services.DispatcherConfig{
			Workers:   cfg.NotificationWorkers,
			QueueSize: cfg.NotificationQueueSize,
		},
		opts...,
	)
	recorder := services.NewHistoryRecorder(repository.NewHistoryRepository(db), opts...)
	issueSvc := services.NewIssueService(issueRepo, directory, recorder, dispatcher, rewardRepo, opts...)
	voteSvc := services.NewVoteService(repository.NewVoteRepository(db), issueRepo, opts...)
	rewardSvc := services.NewRewardService(rewardRepo)

	tokens := authUtils.TokenConfig{Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL}
	if err := controllers.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.RequestLogger(logger), middlewares.CORS(cfg.FrontendURL))

	auth := middlewares.AuthMiddleware(tokens)
	limiter := middlewares.IssueRateLimiter(redisClient, middlewares.RateLimitConfig{
		Prefix: cfg.IssueLimitPrefix,
		Limit:  cfg.IssueDailyLimit,
	})

	routes.AuthRoutes(r, controllers.NewAuthController(
		repository.NewUserRepository(db),
		tokens,
		controllers.CookieConfig{Name: middlewares.AuthCookie, Domain: cfg.Domain, Production: cfg.Production()},
		cfg.RequestTimeout,
	), auth)
	routes.IssueRoutes(r, controllers.NewIssueController(issueSvc, voteSvc, cfg.RequestTimeout), auth, limiter)
	routes.UserRoutes(r, controllers.NewUserController(dispatcher, rewardSvc, directory, cfg.RequestTimeout), auth)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// The dispatcher outlives the server so notifications from requests
	// finishing during Shutdown are still delivered.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(dispatchCtx)
	})
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		defer stopDispatch()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}
