package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"bookhive/internal/config"
	"bookhive/internal/database"
	"bookhive/internal/events"
	"bookhive/internal/models"
	"bookhive/internal/repository"
	"bookhive/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	db     *database.DB
	svc    Services
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testAPIConfig()
	cfg.RateLimit = config.APIRateLimitConfig{}

	sessions := repository.NewMemorySessionStore()
	tokens := NewTokenManager(cfg.JWT)
	bookings := service.NewBookingService(db, events.NewEventBus(), nil, &logger)
	svc := Services{
		Bookings:  bookings,
		Events:    service.NewEventService(db, bookings, &logger),
		Users:     service.NewUserService(db, sessions, tokens, service.LoginLimit{Attempts: 5, Window: time.Minute}, &logger),
		Analytics: service.NewAnalyticsService(db, &logger),
		Sessions:  sessions,
		Tokens:    tokens,
	}

	server := httptest.NewServer(NewHTTPServer(&cfg, svc, &logger).Handler())
	t.Cleanup(server.Close)
	return &testAPI{db: db, svc: svc, server: server}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func signupBody(username string) map[string]any {
	return map[string]any{
		"username":         username,
		"email":            username + "@example.com",
		"full_name":        "User " + username,
		"phone":            "9876543210",
		"password":         "secret123",
		"confirm_password": "secret123",
		"terms":            true,
	}
}

// register signs a user up through the API and returns a fresh access token.
func (a *testAPI) register(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", signupBody(username))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decode[models.User](t, resp)
	return &user, a.login(t, username)
}

func (a *testAPI) registerAdmin(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user, _ := a.register(t, username)
	require.NoError(t, a.db.SetUserRole(context.Background(), user.ID, models.RoleAdmin))
	return user, a.login(t, username)
}

func (a *testAPI) login(t *testing.T, username string) string {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[service.LoginResult](t, resp)
	require.NotNil(t, result.Token)
	return result.Token.Token
}

func (a *testAPI) createEvent(t *testing.T, genre string, seats int, price float64) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:          genre + " Night",
		Genre:          genre,
		Location:       "Pune",
		Venue:          "Open Grounds",
		EventDate:      time.Now().AddDate(0, 1, 0),
		EventTime:      "18:00",
		Price:          price,
		TotalSeats:     seats,
		AvailableSeats: seats,
	}
	require.NoError(t, a.db.CreateEvent(context.Background(), event))
	return event
}

func (a *testAPI) availableSeats(t *testing.T, eventID int64) int {
	t.Helper()
	event, err := a.db.GetEvent(context.Background(), eventID)
	require.NoError(t, err)
	return event.AvailableSeats
}
