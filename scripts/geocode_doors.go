// Command geocode_doors runs the coordinate backfill, or with -neighborhoods
// the neighborhood refresh, against the configured database.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-parisian-doors/app/logger"
	"github.com/FACorreiaa/go-parisian-doors/config"
	"github.com/FACorreiaa/go-parisian-doors/internal/container"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

func main() {
	neighborhoods := flag.Bool("neighborhoods", false, "refresh neighborhoods of doors that already have coordinates")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := appLogger.Setup(os.Getenv("APP_ENV"), os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := container.NewContainer(&cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		logger.Error("Database not reachable")
		os.Exit(1)
	}

	var summary types.MigrationSummary
	if *neighborhoods {
		summary, err = c.DoorService.RefreshNeighborhoods(ctx)
	} else {
		summary, err = c.DoorService.GeocodeMissingCoordinates(ctx)
	}

	for _, o := range summary.Outcomes {
		if o.Status == types.MigrationFailed {
			logger.Warn("Door failed", slog.String("door_id", o.DoorID.String()), slog.String("location", o.Location), slog.String("reason", o.Reason))
		}
	}
	logger.Info("Done",
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("total", summary.Total))
	if err != nil {
		logger.Error("Run stopped early", slog.Any("error", err))
		os.Exit(1)
	}
}
