package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"bookhive/internal/config"
	"bookhive/internal/database"
	"bookhive/internal/google"
	"bookhive/internal/logging"
	"bookhive/internal/models"
	"bookhive/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	var (
		configPath = flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "path to config.yaml")
		printText  = flag.Bool("text", true, "print the summary report to stdout")
		export     = flag.Bool("export", false, "write the bookings workbook into the exports directory")
		resync     = flag.Bool("resync", false, "rewrite the bookings spreadsheet from the ledger")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "report")

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	analyticsService := service.NewAnalyticsService(db, logger)

	if *printText {
		report, err := analyticsService.TextReport(ctx)
		if err != nil {
			return fmt.Errorf("build report: %w", err)
		}
		fmt.Println(report)
	}

	if *export {
		path, err := exportWorkbook(ctx, analyticsService, cfg.Exports.Path)
		if err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("workbook written")
	}

	if *resync {
		if err := resyncSheet(ctx, cfg, db, logger); err != nil {
			return err
		}
	}

	return nil
}

func exportWorkbook(ctx context.Context, analyticsService *service.AnalyticsService, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("20060102_150405")))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create workbook: %w", err)
	}
	if err := analyticsService.ExportWorkbook(ctx, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("export workbook: %w", err)
	}
	return path, f.Close()
}

func resyncSheet(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) error {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return fmt.Errorf("google credentials and bookings spreadsheet id are required for resync")
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		return fmt.Errorf("init sheets: %w", err)
	}

	details, err := db.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	bookings := make([]models.Booking, 0, len(details))
	for i := range details {
		bookings = append(bookings, details[i].Booking)
	}

	if err := sheetsService.ReplaceBookingsSheet(ctx, bookings); err != nil {
		return fmt.Errorf("replace sheet: %w", err)
	}
	logger.Info().Int("bookings", len(bookings)).Msg("bookings sheet resynced")
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
