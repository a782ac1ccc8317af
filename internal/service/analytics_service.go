package service

import (
	"context"
	"io"
	"time"

	"bookhive/internal/analytics"
	"bookhive/internal/domain"
	"bookhive/internal/models"

	"github.com/rs/zerolog"
)

// AnalyticsService reads committed snapshots and folds them into reports.
type AnalyticsService struct {
	source domain.AnalyticsSource
	logger *zerolog.Logger
	now    func() time.Time
}

func NewAnalyticsService(source domain.AnalyticsSource, logger *zerolog.Logger) *AnalyticsService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AnalyticsService{source: source, logger: logger, now: time.Now}
}

func (s *AnalyticsService) Sales(ctx context.Context, topN int) (*analytics.SalesReport, error) {
	bookings, err := s.source.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	report := analytics.BuildSalesReport(bookings, topN)
	return &report, nil
}

func (s *AnalyticsService) Trend(ctx context.Context, period analytics.Period) ([]analytics.TrendPoint, error) {
	bookings, err := s.source.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.SalesTrend(bookings, period), nil
}

func (s *AnalyticsService) Summary(ctx context.Context) (*analytics.Summary, error) {
	events, users, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	summary := analytics.Summarize(events, users, s.now())
	return &summary, nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (*analytics.Dashboard, error) {
	events, users, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	dashboard := analytics.BuildDashboard(events, users, s.now())
	return &dashboard, nil
}

// TextReport renders the summary report as plain text.
func (s *AnalyticsService) TextReport(ctx context.Context) (string, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return "", err
	}
	return analytics.TextReport(*summary), nil
}

// ExportWorkbook writes every booking and the sales report as xlsx to w.
func (s *AnalyticsService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	bookings, err := s.source.ListBookings(ctx)
	if err != nil {
		return err
	}
	if err := analytics.WriteWorkbook(w, bookings, analytics.BuildSalesReport(bookings, models.DefaultTopEvents)); err != nil {
		return err
	}
	s.logger.Info().Int("bookings", len(bookings)).Msg("workbook exported")
	return nil
}

func (s *AnalyticsService) catalogue(ctx context.Context) ([]models.Event, []models.User, error) {
	events, err := s.source.ListEvents(ctx)
	if err != nil {
		return nil, nil, err
	}
	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	return events, users, nil
}
