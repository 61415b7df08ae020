package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"osintrecon/api/routes"
	"osintrecon/internal/config"
	"osintrecon/internal/dao"
	"osintrecon/internal/database"
	"osintrecon/internal/notification"
	"osintrecon/internal/services"
	"osintrecon/pkg/engine"
	apperrors "osintrecon/pkg/errors"
	"osintrecon/pkg/logger"
	"osintrecon/pkg/runner"
	"osintrecon/pkg/tools"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const httpShutdownTimeout = 15 * time.Second

type ServerOpts struct {
	Port int
	Host string
}

func NewServerCommand() *cobra.Command {
	serverOpts := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the osintrecon API server",
		Long:  `Start the REST API that creates scans, runs them in the background and serves their results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			log := logger.Default()

			configFile, _ := cmd.Flags().GetString("config")
			v, err := config.NewViper(configFile)
			if err != nil {
				return err
			}
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = serverOpts.Port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = serverOpts.Host
			}

			verbose, _ := cmd.Flags().GetBool("verbose")
			if !verbose {
				logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
				gin.SetMode(gin.ReleaseMode)
			}

			if v.ConfigFileUsed() != "" {
				config.Watch(v, func(updated *config.Config, e fsnotify.Event) {
					logger.SetLevel(logger.ParseLevel(updated.Log.Level))
					log.WithFields(logger.Fields{
						"file":  e.Name,
						"level": updated.Log.Level,
					}).Info("Configuration reloaded")
				}, func(err error) {
					log.WithError(err).Warn("Ignoring invalid configuration change")
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return Run(ctx, cfg, log)
		},
	}

	serverCmd.Flags().IntVarP(&serverOpts.Port, "port", "p", 8080, "Port to run the server on")
	serverCmd.Flags().StringVarP(&serverOpts.Host, "host", "H", "0.0.0.0", "Address to bind the server to")

	return serverCmd
}

// Run wires the server from cfg and blocks until ctx is cancelled or the
// listener fails. Scans still in flight are drained for at most
// cfg.Server.ShutdownTimeout.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	catalog, err := tools.LoadCatalog(cfg.Tools.CatalogFile)
	if err != nil {
		return err
	}

	dockerClient, err := runner.NewDockerClient(cfg.Docker.Host)
	if err != nil {
		return err
	}
	defer dockerClient.Close()

	containerRunner := runner.NewDockerRunner(dockerClient,
		runner.WithLogger(log),
		runner.WithTimeouts(runner.Timeouts{
			Pull: cfg.Runner.PullTimeout,
			Wait: cfg.Runner.WaitTimeout,
			Logs: cfg.Runner.LogTimeout,
		}))

	executorOpts := []services.ExecutorOptFunc{services.WithExecutorLogger(log)}
	discordClient, err := notification.NewNotificationClient(cfg.Notification.DiscordChannelID)
	switch {
	case err == nil:
		defer discordClient.Close()
		executorOpts = append(executorOpts, services.WithNotifier(discordClient))
		log.Info("Discord notifications enabled")
	case errors.Is(err, apperrors.ErrDiscordNotConfigured):
		log.Info("DISCORD_TOKEN or channel not set - Discord notifications disabled")
	default:
		log.WithError(err).Warn("Failed to initialize Discord client")
	}

	queue := engine.NewQueue(cfg.Executor.MaxConcurrent, log)
	scanDao := dao.NewScanDAO(db)
	executor := services.NewScanExecutor(scanDao, containerRunner, catalog, executorOpts...)

	router := routes.InitRouter(routes.Dependencies{
		ScanService:    services.NewScanService(scanDao, executor, queue),
		CatalogService: services.NewCatalogService(catalog),
		CORS:           cfg.CORS,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), httpShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server did not shut down cleanly")
		}

		drainScans(queue, cfg.Server.ShutdownTimeout, log)
		return nil
	})

	return g.Wait()
}

func drainScans(queue *engine.Queue, timeout time.Duration, log *logger.Logger) {
	running, queued, _ := queue.GetStatus()
	log.WithFields(logger.Fields{
		"running": running,
		"queued":  queued,
	}).Info("Waiting for in-flight scans")

	drained := make(chan struct{})
	go func() {
		queue.Shutdown()
		close(drained)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-drained:
		log.Info("All scans finished")
	case <-timer.C:
		log.WithField("timeout", timeout.String()).Warn("Shutdown timeout reached with scans still running")
	}
}
