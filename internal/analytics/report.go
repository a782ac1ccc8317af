package analytics

import (
	"fmt"
	"strings"
	"time"

	"bookhive/internal/models"
)

// Completeness measures how many required fields are filled in.
type Completeness struct {
	Percentage   float64 `json:"completeness_percentage"`
	FieldsTotal  int     `json:"total_fields_checked"`
	FieldsFilled int     `json:"fields_completed"`
}

type DataQuality struct {
	EventsAnalyzed int          `json:"total_events_analyzed"`
	UsersAnalyzed  int          `json:"total_users_analyzed"`
	Completeness   Completeness `json:"data_completeness"`
}

// Summary is the full catalogue and user analysis.
type Summary struct {
	GeneratedAt time.Time    `json:"export_timestamp"`
	Events      EventTrends  `json:"events_summary"`
	Users       UserPatterns `json:"users_summary"`
	Insights    []string     `json:"insights"`
	DataQuality DataQuality  `json:"data_quality"`
}

type DashboardMetrics struct {
	TotalEvents    int `json:"total_events"`
	TotalUsers     int `json:"total_users"`
	UpcomingEvents int `json:"upcoming_events"`
	NewUsersMonth  int `json:"new_users_month"`
}

type DashboardCharts struct {
	CategoryData map[string]int     `json:"category_data"`
	RevenueData  map[string]float64 `json:"revenue_data"`
	UserGrowth   string             `json:"user_growth"`
}

type Dashboard struct {
	Metrics  DashboardMetrics `json:"metrics"`
	Charts   DashboardCharts  `json:"charts"`
	Insights []string         `json:"insights"`
}

// SalesReport holds the booking folds shown on the analytics page.
type SalesReport struct {
	ByGenre      []GenreSales `json:"by_genre"`
	DailyTrend   []TrendPoint `json:"daily_trend"`
	MonthlyTrend []TrendPoint `json:"monthly_trend"`
	TopEvents    []EventSales `json:"top_events"`
	Statistics   BookingStats `json:"statistics"`
}

func BuildSalesReport(bookings []models.BookingDetail, topN int) SalesReport {
	return SalesReport{
		ByGenre:      SalesByGenre(bookings),
		DailyTrend:   SalesTrend(bookings, Daily),
		MonthlyTrend: SalesTrend(bookings, Monthly),
		TopEvents:    TopEvents(bookings, topN),
		Statistics:   Statistics(bookings),
	}
}

func Insights(events EventTrends, users UserPatterns) []string {
	insights := []string{}
	if events.TotalEvents > 0 {
		if events.MostPopularGenre != "" {
			insights = append(insights, "Most popular event category: "+events.MostPopularGenre)
		}
		if events.Prices.Average > 0 {
			insights = append(insights, fmt.Sprintf("Average event price: $%.2f", events.Prices.Average))
		}
	}
	if users.TotalUsers > 0 {
		insights = append(insights, "User registration trend: "+users.RegistrationTrend)
		if users.NewUsersThisMonth > 0 {
			insights = append(insights, fmt.Sprintf("%d new users this month", users.NewUsersThisMonth))
		}
	}
	return insights
}

// CheckCompleteness counts filled title, genre, location, date and price of events
// and username, email and full name of users.
func CheckCompleteness(events []models.Event, users []models.User) Completeness {
	var c Completeness
	check := func(filled bool) {
		c.FieldsTotal++
		if filled {
			c.FieldsFilled++
		}
	}
	for _, e := range events {
		check(strings.TrimSpace(e.Title) != "")
		check(strings.TrimSpace(e.Genre) != "")
		check(strings.TrimSpace(e.Location) != "")
		check(!e.EventDate.IsZero())
		check(e.Price != 0)
	}
	for _, u := range users {
		check(strings.TrimSpace(u.Username) != "")
		check(strings.TrimSpace(u.Email) != "")
		check(strings.TrimSpace(u.FullName) != "")
	}
	if c.FieldsTotal > 0 {
		c.Percentage = float64(c.FieldsFilled) / float64(c.FieldsTotal) * 100
	}
	return c
}

func Summarize(events []models.Event, users []models.User, now time.Time) Summary {
	eventTrends := AnalyzeEvents(events, now)
	userPatterns := AnalyzeUsers(users, now)
	return Summary{
		GeneratedAt: now,
		Events:      eventTrends,
		Users:       userPatterns,
		Insights:    Insights(eventTrends, userPatterns),
		DataQuality: DataQuality{
			EventsAnalyzed: len(events),
			UsersAnalyzed:  len(users),
			Completeness:   CheckCompleteness(events, users),
		},
	}
}

func BuildDashboard(events []models.Event, users []models.User, now time.Time) Dashboard {
	eventTrends := AnalyzeEvents(events, now)
	userPatterns := AnalyzeUsers(users, now)
	return Dashboard{
		Metrics: DashboardMetrics{
			TotalEvents:    eventTrends.TotalEvents,
			TotalUsers:     userPatterns.TotalUsers,
			UpcomingEvents: eventTrends.UpcomingEvents,
			NewUsersMonth:  userPatterns.NewUsersThisMonth,
		},
		Charts: DashboardCharts{
			CategoryData: eventTrends.CategoryDistribution,
			RevenueData:  eventTrends.RevenueByGenre,
			UserGrowth:   userPatterns.RegistrationTrend,
		},
		Insights: Insights(eventTrends, userPatterns),
	}
}

// TextReport renders the summary as plain text.
func TextReport(s Summary) string {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(rule)
	line("BOOKHIVE EVENT BOOKING SYSTEM - ANALYTICS REPORT")
	line(rule)
	line("Generated on: %s", s.GeneratedAt.Format(time.RFC3339))
	line("")
	line("EVENTS SUMMARY:")
	line("  Total Events: %d", s.Events.TotalEvents)
	line("  Upcoming Events: %d", s.Events.UpcomingEvents)
	line("  Past Events: %d", s.Events.PastEvents)
	if s.Events.MostPopularGenre != "" {
		line("  Most Popular Category: %s", s.Events.MostPopularGenre)
	}
	line("  Average Price: $%.2f", s.Events.Prices.Average)
	line("")
	line("USERS SUMMARY:")
	line("  Total Users: %d", s.Users.TotalUsers)
	line("  New This Month: %d", s.Users.NewUsersThisMonth)
	line("  Registration Trend: %s", s.Users.RegistrationTrend)
	line("")
	line("KEY INSIGHTS:")
	for _, insight := range s.Insights {
		line("  - %s", insight)
	}
	b.WriteString(rule)
	return b.String()
}
