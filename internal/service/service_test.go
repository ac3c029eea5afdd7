package service

import (
	"context"
	"testing"
	"time"

	"github.com/skillbridge/skillbridge-server/internal/config"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/skillbridge/skillbridge-server/internal/notify"
	"github.com/skillbridge/skillbridge-server/internal/repository"
	"github.com/skillbridge/skillbridge-server/internal/utils"
	"github.com/stretchr/testify/assert"
)

var testCredits = config.CreditsConfig{
	StartingBalance: 100,
	SessionCost:     25,
	DefaultDuration: 60,
	MinRating:       1,
	MaxRating:       5,
}

func newTestService() (*DefaultService, repository.Repository) {
	repo := repository.NewMemoryRepository()
	notifier := notify.NewLogNotifier(utils.NewLogger())
	svc := NewDefaultService(repo, "test-secret", testCredits, notifier)
	return svc, repo
}

func createUser(t *testing.T, repo repository.Repository, name, email string) *models.User {
	t.Helper()

	user := &models.User{Name: name, Email: email, Password: "x", Verified: true}
	err := repo.CreateUser(context.Background(), user)
	assert.NoError(t, err)
	return user
}

func TestMakeRoomName(t *testing.T) {
	startsAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	name := makeRoomName("", startsAt)
	assert.Equal(t, "skillbridge-general-1788256800000", name)

	// Unsafe characters are stripped
	name = makeRoomName("conv 42/a!", startsAt)
	assert.Equal(t, "skillbridge-conv42a-1788256800000", name)
}

func TestEarnAndSpend(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	user := createUser(t, repo, "Ledger User", "ledger@example.com")

	_, _, err := svc.earn(ctx, user.ID, 0, models.TransactionBonus, "zero", nil, nil)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	_, balance, err := svc.earn(ctx, user.ID, 10, models.TransactionPurchase, "top-up", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, testCredits.StartingBalance+10, balance)

	_, balance, err = svc.spend(ctx, user.ID, 30, models.TransactionLearning, "lesson", nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, testCredits.StartingBalance-20, balance)

	// Overdraft fails and reports the shortfall
	_, _, err = svc.spend(ctx, user.ID, 1000, models.TransactionLearning, "too much", nil, nil)
	var insufficient *models.InsufficientCreditsError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1000, insufficient.Required)
	assert.Equal(t, testCredits.StartingBalance-20, insufficient.Balance)

	// The failed debit left no trace in the ledger
	wallet, err := svc.GetWallet(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, testCredits.StartingBalance-20, wallet.Balance)
	assert.Equal(t, wallet.TotalEarned-wallet.TotalSpent, wallet.Balance)
}

func TestSweepIdempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	learner := createUser(t, repo, "Learner", "learner@example.com")
	teacher := createUser(t, repo, "Teacher", "teacher@example.com")
	err := repo.AddTeachingSkill(ctx, &models.TeachingSkill{UserID: teacher.ID, Name: "Guitar"})
	assert.NoError(t, err)

	// Freeze the clock before the session
	current := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	meeting, err := svc.ScheduleMeeting(ctx, learner.ID, models.ScheduleMeetingRequest{
		OtherUserID: teacher.ID,
		Title:       "Guitar basics",
		StartsAt:    "2026-09-01T10:00:00Z",
		Duration:    60,
		SessionType: models.SessionLearning,
		Skill:       "Guitar",
	})
	assert.NoError(t, err)

	// Before the end time nothing sweeps
	upcoming, err := svc.ListMeetings(ctx, learner.ID)
	assert.NoError(t, err)
	assert.Len(t, upcoming, 1)

	// Move past the end and sweep repeatedly
	current = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		upcoming, err = svc.ListMeetings(ctx, learner.ID)
		assert.NoError(t, err)
		assert.Empty(t, upcoming)
	}

	swept, err := repo.GetMeeting(ctx, meeting.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, swept.Status)

	// Counters moved exactly once
	taught, err := repo.GetUserByID(ctx, teacher.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, taught.SessionsTaught)
	assert.Equal(t, 1, taught.SkillsTeaching[0].Sessions)

	learned, err := repo.GetUserByID(ctx, learner.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, learned.SessionsLearned)
}

func TestRunningAverage(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	teacher := createUser(t, repo, "Averaged", "avg@example.com")
	err := repo.AddTeachingSkill(ctx, &models.TeachingSkill{UserID: teacher.ID, Name: "Piano"})
	assert.NoError(t, err)

	// One completed session per rating; the average folds in serially
	for _, rating := range []int{5, 4, 3} {
		err = repo.IncrementTeachingStats(ctx, teacher.ID, "Piano")
		assert.NoError(t, err)
		err = svc.applySessionRating(ctx, teacher.ID, "Piano", rating)
		assert.NoError(t, err)
	}

	user, err := repo.GetUserByID(ctx, teacher.ID)
	assert.NoError(t, err)
	assert.Equal(t, 4.0, user.SkillsTeaching[0].Rating)
	assert.Equal(t, 4.0, user.AvgRating)
	assert.Equal(t, 3, user.SkillsTeaching[0].Sessions)
}

func TestScheduleCompensatesFailedDebit(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	learner := createUser(t, repo, "Poor", "poor@example.com")
	teacher := createUser(t, repo, "Paid", "paid@example.com")

	// Empty the learner's wallet
	_, err := svc.getOrCreateWallet(ctx, learner.ID)
	assert.NoError(t, err)
	_, _, err = svc.spend(ctx, learner.ID, testCredits.StartingBalance,
		models.TransactionPurchase, "drain", nil, nil)
	assert.NoError(t, err)

	_, err = svc.ScheduleMeeting(ctx, learner.ID, models.ScheduleMeetingRequest{
		OtherUserID: teacher.ID,
		Title:       "Unaffordable",
		StartsAt:    "2026-10-01T10:00:00Z",
		SessionType: models.SessionLearning,
	})
	var insufficient *models.InsufficientCreditsError
	assert.ErrorAs(t, err, &insufficient)

	// The meeting did not survive the failed debit
	meetings, err := svc.ListMeetings(ctx, learner.ID)
	assert.NoError(t, err)
	assert.Empty(t, meetings)

	// The teacher was never paid
	wallet, err := repo.GetWallet(ctx, teacher.ID)
	assert.NoError(t, err)
	assert.Nil(t, wallet)
}

func TestVerificationCodeExpiry(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	current := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }

	_, err := svc.Register(ctx, models.RegisterRequest{
		Name:     "Expiring",
		Email:    "expiring@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)

	// Past the TTL every code is rejected, even the right one
	current = current.Add(verificationCodeTTL + time.Minute)
	_, err = svc.VerifyCode(ctx, models.VerifyRequest{
		Email: "expiring@example.com",
		Code:  "123456",
	})
	assert.Error(t, err)
}
