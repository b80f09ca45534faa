package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mediainfo-keeper/core/library"
	"mediainfo-keeper/core/loader"
	"mediainfo-keeper/core/logger"
	"mediainfo-keeper/core/middleware/auth"
	"mediainfo-keeper/core/middleware/rayid"
	"mediainfo-keeper/feature/integrity"
	"mediainfo-keeper/feature/mediainfo"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "mediainfo-keeper/docs/swagger"
)

// @title Media Info Keeper API
// @version 1.0
// @description API for preserving and restoring media info of reference items.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the media info keeper server",
	Long:  `Starts the HTTP server, the library watcher, the probe workers and the reconciler.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration and Logger
		cfg, logg, err := setup()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 2. Library, backups and engine
		comp, err := build(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to initialize", zap.Error(err))
		}
		defer comp.close()
		if err := comp.ensureBucket(ctx); err != nil {
			logg.Fatal("Failed to prepare backup bucket", zap.Error(err))
		}
		logg = comp.logger
		logg.Info("Connected to library database")

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(mediainfo.NewFeature(comp.mediainfo))
		mgr.Register(integrity.NewFeature(comp.integrity))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 4. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/swagger"}}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start background work: probe workers first, then the engine, then the watcher
		comp.host.Start(ctx)
		if err := mgr.StartAll(ctx); err != nil {
			logg.Fatal("Failed to start features", zap.Error(err))
		}

		watcher := library.NewWatcher(comp.host, cfg.Library.Roots, cfg.Sweep.Pattern, logg)
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			created, err := watcher.Scan(ctx)
			if err != nil {
				logg.Error("Initial library scan failed", zap.Error(err))
			} else {
				logg.Info("Initial library scan finished", zap.Int("new_items", created))
			}
			if !cfg.Library.Watch {
				return
			}
			if err := watcher.Run(ctx); err != nil {
				logg.Error("Library watcher stopped", zap.Error(err))
			}
		}()

		// 7. Start Server
		go func() {
			logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logg.Info("Shutting down server...")
		_ = app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout())

		cancel()
		<-watchDone
		mgr.StopAll()
		comp.host.Stop()
		logg.Info("Shutdown complete")
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
