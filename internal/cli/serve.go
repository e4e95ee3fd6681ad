package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rmitchellscott/bayerlab/internal/config"
	"github.com/rmitchellscott/bayerlab/internal/database"
	"github.com/rmitchellscott/bayerlab/internal/handlers"
	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
	"github.com/rmitchellscott/bayerlab/internal/logging"
	"github.com/rmitchellscott/bayerlab/internal/middleware"
	"github.com/rmitchellscott/bayerlab/internal/pollers"
	"github.com/rmitchellscott/bayerlab/internal/rendering"
	"github.com/rmitchellscott/bayerlab/internal/storage"
	"github.com/rmitchellscott/bayerlab/internal/version"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var (
		port   string
		noDB   bool
		dbType string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := root.settings
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}

			dbConfig := database.GetDatabaseConfig()
			if cmd.Flags().Changed("db") {
				dbConfig.Type = dbType
			}
			if noDB {
				dbConfig = nil
			}
			return runServe(cmd.Context(), settings, dbConfig)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default from PORT)")
	cmd.Flags().StringVar(&dbType, "db", "", "Database type: sqlite or postgres (default from DB_TYPE)")
	cmd.Flags().BoolVar(&noDB, "no-db", false, "Run without saved palettes or render history")
	return cmd
}

func runServe(ctx context.Context, settings *config.Settings, dbConfig *database.DatabaseConfig) error {
	logging.InfoWithComponent(logging.ComponentStartup, "Starting bayerlab", "version", version.String())

	imageStorage := storage.NewImageStorage(settings.RenderedImagesPath, settings.RenderedImagesURL)

	urlPolicy := imageprocessing.URLPolicyFromEnv()
	urlPolicy.MaxBytes = settings.MaxUploadBytes()

	h := &handlers.Handler{
		Settings:  settings,
		Limiter:   middleware.NewRateLimiter(settings.RenderRatePerMinute),
		URLPolicy: urlPolicy,
	}
	opts := rendering.ServiceOptions{Storage: imageStorage}

	// Stays nil without a database
	var pruner pollers.RecordPruner
	if dbConfig != nil {
		if err := database.Initialize(dbConfig); err != nil {
			return err
		}
		defer func() {
			if err := database.Close(); err != nil {
				logging.ErrorWithComponent(logging.ComponentShutdown, "Failed to close database", "error", err)
			}
		}()

		db := database.GetDB()
		h.Palettes = database.NewPaletteService(db)
		h.Records = database.NewRenderRecordService(db)
		opts.Palettes = h.Palettes
		opts.Records = h.Records
		pruner = h.Records
	} else {
		logging.WarnWithComponent(logging.ComponentStartup, "Running without a database; saved palettes and render history are disabled")
	}
	h.Renderer = rendering.NewService(settings, opts)

	pollerManager := pollers.NewManager()
	pollerManager.Register(pollers.NewCleanupPoller(imageStorage, pruner, settings.RenderRetention,
		pollers.DefaultConfig(pollers.CleanupPollerName, settings.CleanupInterval)))
	pollerManager.Register(pollers.NewBasePoller(pollers.DefaultConfig("rate-limit-cleanup", time.Minute), func(context.Context) error {
		if n := h.Limiter.Cleanup(); n > 0 {
			logging.DebugWithComponent(logging.ComponentCleanup, "Dropped idle rate limiters", "count", n)
		}
		return nil
	}))
	if err := pollerManager.Start(ctx); err != nil {
		return err
	}

	router := newRouter(settings, h)
	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.InfoWithComponent(logging.ComponentStartup, "Listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			_ = pollerManager.Stop()
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logging.InfoWithComponent(logging.ComponentShutdown, "Shutting down server and pollers")

	if err := pollerManager.Stop(); err != nil {
		logging.ErrorWithComponent(logging.ComponentShutdown, "Error stopping pollers", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logging.InfoWithComponent(logging.ComponentShutdown, "Server and pollers stopped")
	return nil
}

func newRouter(settings *config.Settings, h *handlers.Handler) *gin.Engine {
	if settings.GinMode != "" {
		gin.SetMode(settings.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = settings.MaxUploadBytes()

	// Browser tools may call the API from other origins
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	h.RegisterRoutes(router)
	return router
}
