package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scanmate/core/loader"
	"scanmate/core/logger"
	"scanmate/core/middleware/auth"
	"scanmate/core/middleware/rayid"
	"scanmate/feature/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "scanmate/docs/swagger"
)

// @title Scanmate API
// @version 1.0
// @description Device API of the handheld inventory reconciliation engine.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the device API and the scan pipeline",
	Long:  `Opens both mode stores, starts the scan pipeline and the log flusher, and serves the device API.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		eng, err := loadEngine(ctx)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := eng.logger
		zap.ReplaceGlobals(logg)

		svc := eng.session()
		svc.Start(ctx)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
			BodyLimit:             64 * 1024 * 1024,
		})

		// RayID first so every log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Debug("Request started",
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

		// Swagger UI stays reachable without the API key
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: eng.cfg.Server.ApiKey}))
		if !eng.cfg.Server.Protected() {
			logg.Warn("API key is empty, the device API is unprotected")
		}

		mgr := loader.NewManager()
		mgr.Register(session.NewFeature(svc))
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("address", eng.cfg.Server.Address()))
			if err := app.Listen(eng.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := svc.Stop(shutdownCtx); err != nil {
			logg.Error("Failed to flush logs on shutdown", zap.Error(err))
		}
		if err := eng.close(shutdownCtx); err != nil {
			logg.Error("Failed to close stores", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
