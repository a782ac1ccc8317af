package analytics

import (
	"testing"
	"time"

	"bookhive/internal/models"

	"github.com/stretchr/testify/assert"
)

func sampleUsers(now time.Time) []models.User {
	return []models.User{
		{Username: "admin", Role: models.RoleAdmin, CreatedAt: now.AddDate(0, 0, -45)},
		{Username: "amy", Role: models.RoleUser, CreatedAt: now.AddDate(0, 0, -20)},
		{Username: "ben", Role: models.RoleUser, CreatedAt: now.AddDate(0, 0, -3)},
		{Username: "cat", CreatedAt: now.AddDate(0, 0, -1)},
	}
}

func TestAnalyzeUsers(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	p := AnalyzeUsers(sampleUsers(now), now)

	assert.Equal(t, 4, p.TotalUsers)
	assert.Equal(t, map[string]int{models.RoleAdmin: 1, models.RoleUser: 3}, p.RoleDistribution)
	assert.Equal(t, 3, p.NewUsersThisMonth)
	assert.Equal(t, 2, p.NewUsersThisWeek)
	assert.Equal(t, TrendIncreasing, p.RegistrationTrend)
}

func TestRegistrationTrend(t *testing.T) {
	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	days := func(offsets ...int) []time.Time {
		out := make([]time.Time, 0, len(offsets))
		for _, o := range offsets {
			out = append(out, now.AddDate(0, 0, -o))
		}
		return out
	}

	assert.Equal(t, TrendInsufficientData, registrationTrend(days(1), now))
	assert.Equal(t, TrendIncreasing, registrationTrend(days(1, 2, 40), now))
	assert.Equal(t, TrendDecreasing, registrationTrend(days(1, 40, 50), now))
	assert.Equal(t, TrendStable, registrationTrend(days(1, 40), now))
	assert.Equal(t, TrendStable, registrationTrend(days(100, 200), now))
}

func TestInsightsAndDashboard(t *testing.T) {
	now := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	events := sampleEvents(now)
	users := sampleUsers(now)

	insights := Insights(AnalyzeEvents(events, now), AnalyzeUsers(users, now))
	assert.Equal(t, []string{
		"Most popular event category: Music",
		"Average event price: $27.50",
		"User registration trend: increasing",
		"3 new users this month",
	}, insights)
	assert.Empty(t, Insights(EventTrends{}, UserPatterns{}))

	dash := BuildDashboard(events, users, now)
	assert.Equal(t, 4, dash.Metrics.TotalEvents)
	assert.Equal(t, 4, dash.Metrics.TotalUsers)
	assert.Equal(t, 3, dash.Metrics.UpcomingEvents)
	assert.Equal(t, 2, dash.Charts.CategoryData["Music"])
	assert.Equal(t, TrendIncreasing, dash.Charts.UserGrowth)

	summary := Summarize(events, users, now)
	assert.Equal(t, 4, summary.DataQuality.EventsAnalyzed)
	assert.Equal(t, insights, summary.Insights)
}
