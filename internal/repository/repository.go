package repository

import (
	"context"
	"time"

	"github.com/skillbridge/skillbridge-server/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	MarkUserVerified(ctx context.Context, userID string) error

	// Profile sub-collections
	AddTeachingSkill(ctx context.Context, skill *models.TeachingSkill) error
	RemoveTeachingSkill(ctx context.Context, userID, name string) error
	AddLearningSkill(ctx context.Context, userID, name string) error
	RemoveLearningSkill(ctx context.Context, userID, name string) error
	AddCertification(ctx context.Context, cert *models.Certification) error
	RemoveCertification(ctx context.Context, userID, certID string) error

	// Wallet and ledger operations. GetOrCreateWallet is idempotent: when the
	// wallet is absent it is created with the starting balance together with
	// the bonus transaction in one atomic unit. ApplyTransaction applies the
	// wallet mutation and the log insert as one atomic unit; a debit that
	// would take the balance below zero fails with InsufficientCreditsError
	// and changes nothing.
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	GetOrCreateWallet(ctx context.Context, userID string, startingBalance int, bonus *models.Transaction) (*models.Wallet, error)
	ApplyTransaction(ctx context.Context, txn *models.Transaction) (int, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, int, error)
	MonthlyStats(ctx context.Context, userID string, since time.Time) (earned, spent int, err error)

	// Meeting operations. The status flips are conditional updates keyed on
	// the current status so that repeated calls are no-ops; they report
	// whether the row actually changed.
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	GetMeeting(ctx context.Context, id string) (*models.Meeting, error)
	ListScheduledMeetings(ctx context.Context, userID string) ([]models.Meeting, error)
	ListMeetingHistory(ctx context.Context, userID, status string, limit int) ([]models.Meeting, error)
	ListPastMeetings(ctx context.Context, userID string, before time.Time, limit int) ([]models.Meeting, error)
	CompleteMeeting(ctx context.Context, id string) (bool, error)
	CancelMeeting(ctx context.Context, id string) (bool, error)
	SetMeetingRating(ctx context.Context, id string, rating int) (bool, error)
	DeleteMeeting(ctx context.Context, id string) error

	// Feedback operations
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
	ListFeedbackReceived(ctx context.Context, userID string, limit int) ([]models.Feedback, error)
	ListFeedbackGiven(ctx context.Context, userID string, limit int) ([]models.Feedback, error)

	// Reputation operations. All of these are read-then-write on one profile
	// and are serialized per user by the implementation.
	IncrementTeachingStats(ctx context.Context, teacherID, skill string) error
	IncrementSessionsLearned(ctx context.Context, learnerID string) error
	ApplySkillRating(ctx context.Context, teacherID, skill string, rating int) error
	RecomputeUserStats(ctx context.Context, userID string) error

	// Verification codes
	CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error
	ConsumeVerificationCode(ctx context.Context, email, code, purpose string, now time.Time) (*models.VerificationCode, error)
}
