package api

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bookhive/internal/analytics"
	"bookhive/internal/domain"
	"bookhive/internal/models"
)

// ListEvents returns upcoming active events, optionally filtered and sorted.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseEventFilter(q)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}

	events, err := h.events.Filter(r.Context(), filter, q.Get("sort"), q.Get("reverse") == "true")
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.events.Categories(r.Context())
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "eventID")
	if !ok {
		return
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *Handler) InternalAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "eventID")
	if !ok {
		return
	}
	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityFields(event))
}

func (h *Handler) InternalStatistics(w http.ResponseWriter, r *http.Request) {
	report, err := h.analytics.Sales(r.Context(), 0)
	if err != nil {
		writeDomainError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, statisticsFields(report.Statistics))
}

func parseEventFilter(q url.Values) (analytics.EventFilter, error) {
	filter := analytics.EventFilter{Genre: q.Get("genre")}
	var problems []string

	parseFloat := func(key string) *float64 {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			problems = append(problems, key+" must be a number")
			return nil
		}
		return &v
	}
	parseDate := func(key string) *time.Time {
		raw := q.Get(key)
		if raw == "" {
			return nil
		}
		v, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			problems = append(problems, key+" must be a date in "+models.DateLayout+" format")
			return nil
		}
		return &v
	}

	filter.MinPrice = parseFloat("min_price")
	filter.MaxPrice = parseFloat("max_price")
	filter.DateFrom = parseDate("date_from")
	filter.DateTo = parseDate("date_to")
	if raw := q.Get("min_available"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			problems = append(problems, "min_available must be a non-negative integer")
		} else {
			filter.MinAvailable = v
		}
	}

	if len(problems) > 0 {
		return filter, &domain.ValidationError{Fields: problems}
	}
	return filter, nil
}
