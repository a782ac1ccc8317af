package analytics

import (
	"time"

	"bookhive/internal/models"
)

const (
	TrendInsufficientData = "insufficient_data"
	TrendIncreasing       = "increasing"
	TrendDecreasing       = "decreasing"
	TrendStable           = "stable"
)

type UserPatterns struct {
	TotalUsers        int            `json:"total_users"`
	RoleDistribution  map[string]int `json:"role_distribution"`
	RegistrationTrend string         `json:"registration_trend"`
	NewUsersThisMonth int            `json:"new_users_this_month"`
	NewUsersThisWeek  int            `json:"new_users_this_week"`
}

func AnalyzeUsers(users []models.User, now time.Time) UserPatterns {
	patterns := UserPatterns{
		TotalUsers:       len(users),
		RoleDistribution: make(map[string]int),
	}

	var registered []time.Time
	for _, u := range users {
		role := u.Role
		if role == "" {
			role = models.RoleUser
		}
		patterns.RoleDistribution[role]++
		if !u.CreatedAt.IsZero() {
			registered = append(registered, u.CreatedAt)
		}
	}

	patterns.RegistrationTrend = registrationTrend(registered, now)
	patterns.NewUsersThisMonth = countSince(registered, now, 30)
	patterns.NewUsersThisWeek = countSince(registered, now, 7)
	return patterns
}

// registrationTrend compares sign-ups of the last 30 days with the 30 days before.
func registrationTrend(dates []time.Time, now time.Time) string {
	if len(dates) < 2 {
		return TrendInsufficientData
	}

	recentStart := now.AddDate(0, 0, -30)
	olderStart := now.AddDate(0, 0, -60)
	var recent, older int
	for _, d := range dates {
		switch {
		case !d.Before(recentStart):
			recent++
		case !d.Before(olderStart):
			older++
		}
	}

	switch {
	case recent > older:
		return TrendIncreasing
	case recent < older:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// countSince counts dates on or after the calendar day that is days before now.
func countSince(dates []time.Time, now time.Time, days int) int {
	y, m, d := now.AddDate(0, 0, -days).Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	count := 0
	for _, date := range dates {
		if !date.Before(cutoff) {
			count++
		}
	}
	return count
}
