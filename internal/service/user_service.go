package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"bookhive/internal/domain"
	"bookhive/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// SignupRequest is a new account application.
type SignupRequest struct {
	Username        string `json:"username" validate:"required,username"`
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"full_name" validate:"required,min=2"`
	Phone           string `json:"phone" validate:"required,phone"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Terms           bool   `json:"terms" validate:"required"`
}

type ProfileUpdate struct {
	FullName string `json:"full_name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required,phone"`
	Email    string `json:"email" validate:"required,email"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

type ReviewRequest struct {
	EventID        int64  `json:"event_id" validate:"required"`
	BookingID      int64  `json:"booking_id" validate:"required"`
	Rating         int    `json:"rating" validate:"gte=1,lte=5"`
	Title          string `json:"review_title" validate:"max=200"`
	Text           string `json:"review_text"`
	WouldRecommend bool   `json:"would_recommend"`
}

// PasswordStrength scores a password by the number of satisfied checks.
type PasswordStrength struct {
	Score  int             `json:"score"`
	Label  string          `json:"label"`
	Checks map[string]bool `json:"checks,omitempty"`
}

type LoginResult struct {
	User  *models.User      `json:"user"`
	Token *models.AuthToken `json:"token"`
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *models.User) (*models.AuthToken, error)
}

// LoginLimit bounds login attempts per username and client address.
type LoginLimit struct {
	Attempts int
	Window   time.Duration
}

type UserService struct {
	repo     domain.UserRepository
	sessions domain.SessionStore
	tokens   TokenIssuer
	limit    LoginLimit
	cost     int
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewUserService(repo domain.UserRepository, sessions domain.SessionStore, tokens TokenIssuer, limit LoginLimit, logger *zerolog.Logger) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{
		repo:     repo,
		sessions: sessions,
		tokens:   tokens,
		limit:    limit,
		cost:     bcrypt.DefaultCost,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a user account. Every validation problem is reported at once.
func (s *UserService) Register(ctx context.Context, req SignupRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	taken, err := s.repo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUsernameTaken
	}
	taken, err = s.repo.EmailExists(ctx, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login checks credentials and issues an access token. Failed attempts against an
// existing account are recorded in its login history.
func (s *UserService) Login(ctx context.Context, username, password, ip, userAgent string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if err := s.checkLoginRate(ctx, username, ip); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.recordLogin(ctx, user.ID, models.LoginFailed, ip, userAgent)
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	s.recordLogin(ctx, user.ID, models.LoginSuccess, ip, userAgent)
	return &LoginResult{User: user, Token: token}, nil
}

func (s *UserService) checkLoginRate(ctx context.Context, username, ip string) error {
	if s.sessions == nil || s.limit.Attempts <= 0 {
		return nil
	}
	key := "login:" + strings.ToLower(username) + ":" + ip
	allowed, err := s.sessions.CheckRateLimit(ctx, key, s.limit.Attempts, s.limit.Window)
	if err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("login rate limit check failed")
		return nil
	}
	if !allowed {
		return domain.ErrRateLimited
	}
	return nil
}

func (s *UserService) recordLogin(ctx context.Context, userID int64, status, ip, userAgent string) {
	record := &models.LoginRecord{
		UserID:      userID,
		LoginStatus: status,
		IPAddress:   ip,
		UserAgent:   userAgent,
		LoginTime:   s.now(),
	}
	if err := s.repo.RecordLogin(ctx, record); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("record login error")
	}
}

// Logout revokes the token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.sessions == nil || tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.sessions.RevokeToken(ctx, tokenID, ttl)
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, req PasswordChange) error {
	if err := ValidateStruct(req); err != nil {
		return err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("password changed")
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req ProfileUpdate) (*models.User, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailExists(ctx, req.Email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrEmailTaken
	}

	if err := s.repo.UpdateUserProfile(ctx, userID, req.FullName, req.Phone, req.Email); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserService) LoginHistory(ctx context.Context, userID int64, limit int) ([]models.LoginRecord, error) {
	if limit <= 0 {
		limit = models.DefaultLoginHistorySize
	}
	return s.repo.ListLoginHistory(ctx, userID, limit)
}

// Profile gathers the user, their booking statistics, recent bookings and reviews.
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.GetUserStatistics(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListRecentBookings(ctx, userID, models.RecentBookingsSize)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, userID, models.RecentBookingsSize)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		User:           user,
		Statistics:     *stats,
		RecentBookings: recent,
		Reviews:        reviews,
	}, nil
}

// AddReview rates an event the user holds an active booking for. A second review
// of the same event replaces the first.
func (s *UserService) AddReview(ctx context.Context, userID int64, req ReviewRequest) (*models.Review, error) {
	if err := ValidateStruct(req); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID == nil || *booking.UserID != userID || booking.EventID != req.EventID || !booking.IsActive() {
		return nil, &domain.ValidationError{Fields: []string{"booking is not an active booking of yours for this event"}}
	}

	review := &models.Review{
		UserID:         userID,
		EventID:        req.EventID,
		BookingID:      req.BookingID,
		Rating:         req.Rating,
		Title:          strings.TrimSpace(req.Title),
		Text:           strings.TrimSpace(req.Text),
		WouldRecommend: req.WouldRecommend,
	}
	if err := s.repo.UpsertReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

const passwordSpecials = "!@#$%^&*()_+-="

// CheckPasswordStrength scores length>=8, upper, lower, digit and special characters.
func CheckPasswordStrength(password string) PasswordStrength {
	if password == "" {
		return PasswordStrength{Score: 0, Label: "Very Weak"}
	}

	checks := map[string]bool{
		"length":    len(password) >= 8,
		"uppercase": strings.IndexFunc(password, unicode.IsUpper) >= 0,
		"lowercase": strings.IndexFunc(password, unicode.IsLower) >= 0,
		"numbers":   strings.IndexFunc(password, unicode.IsDigit) >= 0,
		"special":   strings.ContainsAny(password, passwordSpecials),
	}
	score := 0
	for _, ok := range checks {
		if ok {
			score++
		}
	}

	label := "Fair"
	switch {
	case score <= 2:
		label = "Very Weak"
	case score <= 4:
		label = "Weak"
	}
	return PasswordStrength{Score: score, Label: label, Checks: checks}
}
