package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bookhive/internal/analytics"
	"bookhive/internal/models"
	"bookhive/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statusRequest struct {
	Status        string  `json:"status" validate:"required"`
	PaymentStatus *string `json:"payment_status"`
}

type eventRequest struct {
	Title          string  `json:"title" validate:"required"`
	Genre          string  `json:"genre" validate:"required"`
	Location       string  `json:"location"`
	Venue          string  `json:"venue"`
	Description    string  `json:"description"`
	ImageURL       string  `json:"image_url" validate:"omitempty,url"`
	EventDate      string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	EventTime      string  `json:"event_time"`
	EventEndTime   string  `json:"event_end_time"`
	Price          float64 `json:"price" validate:"gte=0"`
	TotalSeats     int     `json:"total_seats" validate:"gte=0"`
	AvailableSeats *int    `json:"available_seats" validate:"omitempty,gte=0"`
	Featured       bool    `json:"featured"`
}

func (req eventRequest) input() service.EventInput {
	date, _ := time.Parse(models.DateLayout, req.EventDate)
	return service.EventInput{
		Title:          req.Title,
		Genre:          req.Genre,
		Location:       req.Location,
		Venue:          req.Venue,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		EventDate:      date,
		EventTime:      req.EventTime,
		EventEndTime:   req.EventEndTime,
		Price:          req.Price,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: req.AvailableSeats,
		Featured:       req.Featured,
	}
}

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	stats, err := h.bookings.AdminStats(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) AdminBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *Handler) AdminBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	detail, err := h.bookings.GetBookingDetail(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) AdminSetBookingStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	id, ok := idParam(w, r, "bookingID")
	if !ok {
		return
	}
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := service.ValidateStruct(req); err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	result, err := h.bookings.AdminSetBookingStatus(r.Context(), id, req.Status, req.PaymentStatus, h.adminName(r, p))
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) adminName(r *http.Request, p *Principal) string {
	user, err := h.users.GetUser(r.Context(), p.UserID)
	if err != nil {
		return "admin#" + strconv.FormatInt(p.UserID, 10)
	}
	return user.Username
}

func (h *Handler) AdminEvents(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	events, err := h.events.ListByCreator(r.Context(), p.UserID)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) AdminCreateEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := service.ValidateStruct(req); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	event, err := h.events.Create(r.Context(), p.UserID, req.input())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *Handler) AdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	id, ok := idParam(w, r, "eventID")
	if !ok {
		return
	}
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := service.ValidateStruct(req); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	event, err := h.events.Update(r.Context(), p.UserID, id, req.input())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) AdminCancelEvent(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	id, ok := idParam(w, r, "eventID")
	if !ok {
		return
	}
	if err := h.events.Cancel(r.Context(), p.UserID, id); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	top, _ := strconv.Atoi(r.URL.Query().Get("top"))
	report, err := h.analytics.Sales(r.Context(), top)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) SalesTrend(w http.ResponseWriter, r *http.Request) {
	period := analytics.ParsePeriod(r.URL.Query().Get("period"))
	trend, err := h.analytics.Trend(r.Context(), period)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"period": period, "trend": trend})
}

func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) AnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.analytics.Dashboard(r.Context())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) TextReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.TextReport(r.Context())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}

// ExportWorkbook renders the workbook in memory first so failures still get a JSON error.
func (h *Handler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.analytics.ExportWorkbook(r.Context(), &buf); err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	filename := fmt.Sprintf("bookhive-report-%s.xlsx", time.Now().Format(models.DateLayout))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
