package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/sealbox/sealbox/internal/config"
	"github.com/sealbox/sealbox/internal/db"
	"github.com/sealbox/sealbox/internal/filestore"
	"github.com/sealbox/sealbox/internal/handler"
	"github.com/sealbox/sealbox/internal/job"
	"github.com/sealbox/sealbox/internal/middleware"
	"github.com/sealbox/sealbox/internal/repo"
	"github.com/sealbox/sealbox/internal/schedule"
	"github.com/sealbox/sealbox/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sealbox",
		Short: "sealbox file sharing backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run sealbox server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	userRepo := repo.NewUserRepo(conn)
	fileRepo := repo.NewFileRepo(conn)
	grantRepo := repo.NewGrantRepo(conn)
	auditRepo := repo.NewAuditRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	jwtSecret := []byte(cfg.JWTSecret)
	authService := service.NewAuthService(userRepo, jwtSecret, time.Hour*time.Duration(cfg.JWTTTLHours))
	fileService := service.NewFileService(fileRepo, store)
	grantService := service.NewGrantService(grantRepo, fileRepo)
	auditService := service.NewAuditService(auditRepo)
	accessService := service.NewAccessService(grantService, fileService, auditService)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Files:     handler.NewFileHandler(fileService, cfg.UploadLimit),
		Grants:    handler.NewGrantHandler(grantService, auditService),
		Access:    handler.NewAccessHandler(accessService, fileService),
		JWTSecret: jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Notify.Enable {
		sender := service.NewEmailSender(cfg.Mail)
		if err := scheduler.AddJob(job.NewViewDigestJob(auditRepo, sender), cfg.Notify.Spec); err != nil {
			return fmt.Errorf("schedule view digest: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
