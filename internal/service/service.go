package service

import (
	"context"
	"time"

	"github.com/skillbridge/skillbridge-server/internal/config"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/skillbridge/skillbridge-server/internal/notify"
	"github.com/skillbridge/skillbridge-server/internal/repository"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error)
	VerifyCode(ctx context.Context, req models.VerifyRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Profiles
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	AddTeachingSkill(ctx context.Context, userID string, req models.AddTeachingSkillRequest) (*models.User, error)
	RemoveTeachingSkill(ctx context.Context, userID, name string) (*models.User, error)
	AddLearningSkill(ctx context.Context, userID string, req models.AddLearningSkillRequest) (*models.User, error)
	RemoveLearningSkill(ctx context.Context, userID, name string) (*models.User, error)
	AddCertification(ctx context.Context, userID string, req models.AddCertificationRequest) (*models.User, error)
	RemoveCertification(ctx context.Context, userID, certID string) (*models.User, error)

	// Credits
	GetWallet(ctx context.Context, userID string) (*models.WalletResponse, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) (*models.TransactionsResponse, error)
	CheckBalance(ctx context.Context, userID string) (*models.BalanceCheckResponse, error)

	// Meetings
	ScheduleMeeting(ctx context.Context, userID string, req models.ScheduleMeetingRequest) (*models.Meeting, error)
	ListMeetings(ctx context.Context, userID string) ([]models.Meeting, error)
	MeetingHistory(ctx context.Context, userID, status string, limit int) ([]models.Meeting, error)
	RateMeeting(ctx context.Context, userID, meetingID string, rating int) (*models.Meeting, error)
	CancelMeeting(ctx context.Context, userID, meetingID string) (*models.Meeting, error)
	DeleteMeeting(ctx context.Context, userID, meetingID string) error

	// Feedback
	SubmitFeedback(ctx context.Context, userID string, req models.SubmitFeedbackRequest) (*models.Feedback, error)
	FeedbackReceived(ctx context.Context, userID string) ([]models.FeedbackItem, error)
	FeedbackGiven(ctx context.Context, userID string) ([]models.FeedbackItem, error)
	PendingFeedback(ctx context.Context, userID string) ([]models.PendingFeedbackItem, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	notifier      notify.Notifier
	credits       config.CreditsConfig
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(
	repo repository.Repository,
	jwtSecret string,
	credits config.CreditsConfig,
	notifier notify.Notifier,
) *DefaultService {
	return &DefaultService{
		repo:          repo,
		notifier:      notifier,
		credits:       credits,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		now:           time.Now,
	}
}
