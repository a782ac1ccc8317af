package analytics

import (
	"fmt"
	"io"

	"bookhive/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetBookings  = "Bookings"
	SheetGenres    = "Genres"
	SheetTrend     = "Trend"
	SheetTopEvents = "Top Events"
)

// WriteWorkbook renders bookings and their sales report as an xlsx workbook.
func WriteWorkbook(w io.Writer, bookings []models.BookingDetail, report SalesReport) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	if err := writeBookingsSheet(f, header, bookings); err != nil {
		return err
	}
	if err := writeGenreSheet(f, header, report.ByGenre); err != nil {
		return err
	}
	if err := writeTrendSheet(f, header, report.MonthlyTrend); err != nil {
		return err
	}
	if err := writeTopEventsSheet(f, header, report.TopEvents); err != nil {
		return err
	}

	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetBookings); err == nil {
		f.SetActiveSheet(idx)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]any, widths ...float64) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("error creating sheet %s: %w", sheet, err)
	}

	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", lastHeader, headerStyle)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}
	return nil
}

func writeBookingsSheet(f *excelize.File, style int, bookings []models.BookingDetail) error {
	headers := []string{"Reference", "Event", "Genre", "Event Date", "Customer", "Email", "Seats", "Total Price", "Status", "Payment", "Booked At"}
	rows := make([][]any, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, []any{
			b.BookingReference,
			b.EventTitle,
			b.EventGenre,
			b.EventDate.Format(models.DateLayout),
			b.CustomerName,
			b.CustomerEmail,
			b.SeatsBooked,
			b.TotalPrice,
			b.BookingStatus,
			b.PaymentStatus,
			b.BookingDate.Format("2006-01-02 15:04"),
		})
	}
	return writeRows(f, SheetBookings, style, headers, rows, 18, 30, 14, 12, 22, 28, 8, 12, 11, 11, 17)
}

func writeGenreSheet(f *excelize.File, style int, genres []GenreSales) error {
	rows := make([][]any, 0, len(genres))
	for _, g := range genres {
		rows = append(rows, []any{g.Genre, g.Tickets, g.Revenue})
	}
	if err := writeRows(f, SheetGenres, style, []string{"Genre", "Tickets", "Revenue"}, rows, 18, 10, 12); err != nil {
		return err
	}
	if len(genres) == 0 {
		return nil
	}

	last := len(genres) + 1
	return f.AddChart(SheetGenres, "E2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$C$1", SheetGenres),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", SheetGenres, last),
			Values:     fmt.Sprintf("'%s'!$C$2:$C$%d", SheetGenres, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Revenue by Genre"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}

func writeTrendSheet(f *excelize.File, style int, trend []TrendPoint) error {
	rows := make([][]any, 0, len(trend))
	for _, p := range trend {
		rows = append(rows, []any{p.Period, p.Tickets, p.Revenue})
	}
	return writeRows(f, SheetTrend, style, []string{"Month", "Tickets", "Revenue"}, rows, 12, 10, 12)
}

func writeTopEventsSheet(f *excelize.File, style int, top []EventSales) error {
	rows := make([][]any, 0, len(top))
	for i, e := range top {
		rows = append(rows, []any{i + 1, e.Title, e.Tickets, e.Revenue})
	}
	return writeRows(f, SheetTopEvents, style, []string{"Rank", "Event", "Tickets", "Revenue"}, rows, 6, 32, 10, 12)
}
