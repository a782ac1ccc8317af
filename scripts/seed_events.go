package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"bookhive/internal/database"
	"bookhive/internal/domain"
	"bookhive/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type EventsConfig struct {
	Events []SeedEvent `yaml:"events"`
}

type SeedEvent struct {
	models.Event `yaml:",inline"`
	Date         string `yaml:"event_date"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		eventsPath = flag.String("events", "configs/events.yaml", "path to events.yaml")
		dbPath     = flag.String("db", "./data/bookhive.db", "path to sqlite db")
		adminName  = flag.String("admin", "", "username to promote to admin")
	)
	flag.Parse()

	data, err := os.ReadFile(*eventsPath)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	var cfg EventsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse events: %w", err)
	}
	if len(cfg.Events) == 0 {
		return fmt.Errorf("no events in yaml")
	}

	seeds := make([]models.Event, 0, len(cfg.Events))
	for _, se := range cfg.Events {
		if se.Title == "" {
			continue
		}
		date, err := time.Parse(models.DateLayout, se.Date)
		if err != nil {
			return fmt.Errorf("event %q: %w", se.Title, err)
		}
		event := se.Event
		event.EventDate = date
		seeds = append(seeds, event)
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inserted, err := db.EnsureEvents(ctx, seeds)
	if err != nil {
		return fmt.Errorf("seed events: %w", err)
	}

	if *adminName != "" {
		user, err := db.GetUserByUsername(ctx, *adminName)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user %q does not exist", *adminName)
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", *adminName, err)
		}
		if err := db.SetUserRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("promote %s: %w", *adminName, err)
		}
		fmt.Printf("promoted %s to admin\n", *adminName)
	}

	fmt.Printf("done: inserted=%d skipped=%d\n", inserted, len(seeds)-inserted)
	return nil
}
