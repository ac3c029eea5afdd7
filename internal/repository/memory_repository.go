package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge-server/internal/models"
)

// MemoryRepository implements the Repository interface in memory. It is used
// by the tests so the suite runs without a PostgreSQL instance. A single
// mutex serializes every operation, which also gives it the same atomicity
// guarantees as the SQL transactions in the Postgres implementation.
type MemoryRepository struct {
	mu           sync.Mutex
	users        map[string]*models.User
	wallets      map[string]*models.Wallet
	transactions []*models.Transaction
	meetings     map[string]*models.Meeting
	feedback     []*models.Feedback
	codes        map[string]*models.VerificationCode
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]*models.User),
		wallets:  make(map[string]*models.Wallet),
		meetings: make(map[string]*models.Meeting),
		codes:    make(map[string]*models.VerificationCode),
	}
}

// User repository methods
func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New("email already registered")
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = "user"
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := copyUser(user)
	r.users[user.ID] = stored

	return nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}

	return nil, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}

	return copyUser(user), nil
}

func (r *MemoryRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *copyUser(user))
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	return users, nil
}

func (r *MemoryRepository) UpdateUserProfile(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return models.ErrNotFound
	}

	stored.Name = user.Name
	stored.Bio = user.Bio
	stored.Location = user.Location
	stored.Languages = append(stored.Languages[:0:0], user.Languages...)
	stored.Timezone = user.Timezone
	stored.Avatar = user.Avatar
	stored.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *MemoryRepository) MarkUserVerified(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[userID]; ok {
		user.Verified = true
		user.UpdatedAt = time.Now().UTC()
	}

	return nil
}

// Profile sub-collection methods
func (r *MemoryRepository) AddTeachingSkill(ctx context.Context, skill *models.TeachingSkill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[skill.UserID]
	if !ok {
		return models.ErrNotFound
	}

	for _, existing := range user.SkillsTeaching {
		if strings.EqualFold(existing.Name, skill.Name) {
			return models.NewValidationError("skill %q is already listed", skill.Name)
		}
	}

	user.SkillsTeaching = append(user.SkillsTeaching, *skill)

	return nil
}

func (r *MemoryRepository) RemoveTeachingSkill(ctx context.Context, userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return models.ErrNotFound
	}

	for i, skill := range user.SkillsTeaching {
		if strings.EqualFold(skill.Name, name) {
			user.SkillsTeaching = append(user.SkillsTeaching[:i], user.SkillsTeaching[i+1:]...)
			return nil
		}
	}

	return models.ErrNotFound
}

func (r *MemoryRepository) AddLearningSkill(ctx context.Context, userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return models.ErrNotFound
	}

	for _, existing := range user.SkillsLearning {
		if strings.EqualFold(existing, name) {
			return models.NewValidationError("skill %q is already listed", name)
		}
	}

	user.SkillsLearning = append(user.SkillsLearning, name)

	return nil
}

func (r *MemoryRepository) RemoveLearningSkill(ctx context.Context, userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return models.ErrNotFound
	}

	for i, existing := range user.SkillsLearning {
		if strings.EqualFold(existing, name) {
			user.SkillsLearning = append(user.SkillsLearning[:i], user.SkillsLearning[i+1:]...)
			return nil
		}
	}

	return models.ErrNotFound
}

func (r *MemoryRepository) AddCertification(ctx context.Context, cert *models.Certification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[cert.UserID]
	if !ok {
		return models.ErrNotFound
	}

	if cert.ID == "" {
		cert.ID = uuid.New().String()
	}

	user.Certifications = append(user.Certifications, *cert)

	return nil
}

func (r *MemoryRepository) RemoveCertification(ctx context.Context, userID, certID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return models.ErrNotFound
	}

	for i, cert := range user.Certifications {
		if cert.ID == certID {
			user.Certifications = append(user.Certifications[:i], user.Certifications[i+1:]...)
			return nil
		}
	}

	return models.ErrNotFound
}

// Wallet and ledger methods
func (r *MemoryRepository) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, ok := r.wallets[userID]
	if !ok {
		return nil, nil
	}

	copied := *wallet
	return &copied, nil
}

func (r *MemoryRepository) GetOrCreateWallet(
	ctx context.Context,
	userID string,
	startingBalance int,
	bonus *models.Transaction,
) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wallet, ok := r.wallets[userID]; ok {
		copied := *wallet
		return &copied, nil
	}

	now := time.Now().UTC()
	wallet := &models.Wallet{
		UserID:      userID,
		Balance:     startingBalance,
		TotalEarned: startingBalance,
		TotalSpent:  0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.wallets[userID] = wallet

	if bonus.ID == "" {
		bonus.ID = uuid.New().String()
	}
	bonus.UserID = userID
	bonus.Amount = startingBalance
	bonus.CreatedAt = now
	r.transactions = append(r.transactions, copyTransaction(bonus))

	copied := *wallet
	return &copied, nil
}

func (r *MemoryRepository) ApplyTransaction(ctx context.Context, txn *models.Transaction) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, ok := r.wallets[txn.UserID]
	if !ok {
		return 0, models.ErrNotFound
	}

	if txn.Amount >= 0 {
		wallet.Balance += txn.Amount
		wallet.TotalEarned += txn.Amount
	} else {
		debit := -txn.Amount
		if wallet.Balance < debit {
			return 0, &models.InsufficientCreditsError{Required: debit, Balance: wallet.Balance}
		}
		wallet.Balance -= debit
		wallet.TotalSpent += debit
	}
	wallet.UpdatedAt = time.Now().UTC()

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	txn.CreatedAt = wallet.UpdatedAt
	r.transactions = append(r.transactions, copyTransaction(txn))

	return wallet.Balance, nil
}

func (r *MemoryRepository) ListTransactions(
	ctx context.Context,
	userID string,
	limit,
	offset int,
) ([]models.Transaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Newest first: walk the append-ordered log backwards.
	var all []models.Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		if r.transactions[i].UserID == userID {
			all = append(all, *copyTransaction(r.transactions[i]))
		}
	}

	total := len(all)
	if offset >= total {
		return []models.Transaction{}, total, nil
	}

	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return all[offset:end], total, nil
}

func (r *MemoryRepository) MonthlyStats(
	ctx context.Context,
	userID string,
	since time.Time,
) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var earned, spent int
	for _, txn := range r.transactions {
		if txn.UserID != userID || txn.CreatedAt.Before(since) {
			continue
		}
		if txn.Amount > 0 {
			earned += txn.Amount
		} else {
			spent += -txn.Amount
		}
	}

	return earned, spent, nil
}

// Meeting repository methods
func (r *MemoryRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	r.meetings[meeting.ID] = copyMeeting(meeting)

	return nil
}

func (r *MemoryRepository) GetMeeting(ctx context.Context, id string) (*models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.meetings[id]
	if !ok {
		return nil, nil
	}

	return copyMeeting(meeting), nil
}

func (r *MemoryRepository) ListScheduledMeetings(ctx context.Context, userID string) ([]models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var meetings []models.Meeting
	for _, meeting := range r.meetings {
		if meeting.HasParticipant(userID) && meeting.Status == models.StatusScheduled {
			meetings = append(meetings, *copyMeeting(meeting))
		}
	}

	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].StartsAt.Before(meetings[j].StartsAt)
	})

	if len(meetings) > 200 {
		meetings = meetings[:200]
	}

	return meetings, nil
}

func (r *MemoryRepository) ListMeetingHistory(
	ctx context.Context,
	userID,
	status string,
	limit int,
) ([]models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var meetings []models.Meeting
	for _, meeting := range r.meetings {
		if !meeting.HasParticipant(userID) {
			continue
		}
		if status != "" && meeting.Status != status {
			continue
		}
		meetings = append(meetings, *copyMeeting(meeting))
	}

	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].StartsAt.After(meetings[j].StartsAt)
	})

	if limit > 0 && len(meetings) > limit {
		meetings = meetings[:limit]
	}

	return meetings, nil
}

func (r *MemoryRepository) ListPastMeetings(
	ctx context.Context,
	userID string,
	before time.Time,
	limit int,
) ([]models.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var meetings []models.Meeting
	for _, meeting := range r.meetings {
		if meeting.HasParticipant(userID) && meeting.StartsAt.Before(before) {
			meetings = append(meetings, *copyMeeting(meeting))
		}
	}

	sort.Slice(meetings, func(i, j int) bool {
		return meetings[i].StartsAt.After(meetings[j].StartsAt)
	})

	if limit > 0 && len(meetings) > limit {
		meetings = meetings[:limit]
	}

	return meetings, nil
}

func (r *MemoryRepository) CompleteMeeting(ctx context.Context, id string) (bool, error) {
	return r.transition(id, models.StatusScheduled, models.StatusCompleted)
}

func (r *MemoryRepository) CancelMeeting(ctx context.Context, id string) (bool, error) {
	return r.transition(id, models.StatusScheduled, models.StatusCancelled)
}

func (r *MemoryRepository) transition(id, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.meetings[id]
	if !ok || meeting.Status != from {
		return false, nil
	}

	meeting.Status = to
	meeting.UpdatedAt = time.Now().UTC()

	return true, nil
}

func (r *MemoryRepository) SetMeetingRating(ctx context.Context, id string, rating int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meeting, ok := r.meetings[id]
	if !ok || meeting.Status != models.StatusCompleted || meeting.Rating != nil {
		return false, nil
	}

	meeting.Rating = &rating
	meeting.UpdatedAt = time.Now().UTC()

	return true, nil
}

func (r *MemoryRepository) DeleteMeeting(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[id]; !ok {
		return models.ErrNotFound
	}

	delete(r.meetings, id)

	return nil
}

// Feedback repository methods
func (r *MemoryRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if feedback.MeetingID != nil {
		for _, existing := range r.feedback {
			if existing.FromUserID == feedback.FromUserID &&
				existing.ToUserID == feedback.ToUserID &&
				existing.MeetingID != nil && *existing.MeetingID == *feedback.MeetingID {
				return models.ErrDuplicateFeedback
			}
		}
	}

	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	feedback.CreatedAt = time.Now().UTC()

	r.feedback = append(r.feedback, copyFeedback(feedback))

	return nil
}

func (r *MemoryRepository) ListFeedbackReceived(ctx context.Context, userID string, limit int) ([]models.Feedback, error) {
	return r.listFeedback(userID, limit, func(f *models.Feedback) bool { return f.ToUserID == userID })
}

func (r *MemoryRepository) ListFeedbackGiven(ctx context.Context, userID string, limit int) ([]models.Feedback, error) {
	return r.listFeedback(userID, limit, func(f *models.Feedback) bool { return f.FromUserID == userID })
}

func (r *MemoryRepository) listFeedback(userID string, limit int, match func(*models.Feedback) bool) ([]models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var feedbacks []models.Feedback
	for i := len(r.feedback) - 1; i >= 0; i-- {
		if match(r.feedback[i]) {
			feedbacks = append(feedbacks, *copyFeedback(r.feedback[i]))
		}
	}

	if limit > 0 && len(feedbacks) > limit {
		feedbacks = feedbacks[:limit]
	}

	return feedbacks, nil
}

// Reputation repository methods
func (r *MemoryRepository) IncrementTeachingStats(ctx context.Context, teacherID, skill string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[teacherID]
	if !ok {
		return models.ErrNotFound
	}

	for i := range user.SkillsTeaching {
		if strings.EqualFold(user.SkillsTeaching[i].Name, skill) {
			user.SkillsTeaching[i].Sessions++
			break
		}
	}
	user.SessionsTaught++
	user.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *MemoryRepository) IncrementSessionsLearned(ctx context.Context, learnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[learnerID]
	if !ok {
		return models.ErrNotFound
	}

	user.SessionsLearned++
	user.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *MemoryRepository) ApplySkillRating(ctx context.Context, teacherID, skill string, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[teacherID]
	if !ok {
		return models.ErrNotFound
	}

	index := -1
	for i := range user.SkillsTeaching {
		if strings.EqualFold(user.SkillsTeaching[i].Name, skill) {
			index = i
			break
		}
	}
	if index < 0 {
		// Teacher does not list the skill; nothing to fold the rating into.
		return nil
	}

	entry := &user.SkillsTeaching[index]
	sessions := entry.Sessions
	if sessions < 1 {
		sessions = 1
	}
	entry.Rating = roundToTenth((entry.Rating*float64(sessions-1) + float64(rating)) / float64(sessions))

	var sum float64
	var count int
	for _, s := range user.SkillsTeaching {
		if s.Rating > 0 {
			sum += s.Rating
			count++
		}
	}
	if count > 0 {
		user.AvgRating = roundToTenth(sum / float64(count))
	}
	user.UpdatedAt = time.Now().UTC()

	return nil
}

func (r *MemoryRepository) RecomputeUserStats(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return models.ErrNotFound
	}

	var sum, count int
	meetings := make(map[string]struct{})
	for _, f := range r.feedback {
		if f.ToUserID != userID {
			continue
		}
		sum += f.Rating
		count++
		if f.MeetingID != nil {
			meetings[*f.MeetingID] = struct{}{}
		}
	}

	user.AvgRating = 0
	if count > 0 {
		user.AvgRating = roundToTenth(float64(sum) / float64(count))
	}
	user.SessionsTaught = len(meetings)
	user.UpdatedAt = time.Now().UTC()

	return nil
}

// Verification code methods
func (r *MemoryRepository) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	code.CreatedAt = time.Now().UTC()

	copied := *code
	r.codes[code.ID] = &copied

	return nil
}

func (r *MemoryRepository) ConsumeVerificationCode(
	ctx context.Context,
	email,
	code,
	purpose string,
	now time.Time,
) (*models.VerificationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, vc := range r.codes {
		if vc.Email == email && vc.Code == code && vc.Purpose == purpose && vc.ExpiresAt.After(now) {
			delete(r.codes, id)
			copied := *vc
			return &copied, nil
		}
	}

	return nil, nil
}

// Copy helpers keep callers from aliasing stored state.
func copyUser(user *models.User) *models.User {
	copied := *user
	copied.Languages = append(user.Languages[:0:0], user.Languages...)
	copied.SkillsTeaching = append([]models.TeachingSkill(nil), user.SkillsTeaching...)
	copied.SkillsLearning = append([]string(nil), user.SkillsLearning...)
	copied.Certifications = append([]models.Certification(nil), user.Certifications...)
	return &copied
}

func copyTransaction(txn *models.Transaction) *models.Transaction {
	copied := *txn
	if txn.MeetingID != nil {
		v := *txn.MeetingID
		copied.MeetingID = &v
	}
	if txn.OtherUserID != nil {
		v := *txn.OtherUserID
		copied.OtherUserID = &v
	}
	return &copied
}

func copyMeeting(meeting *models.Meeting) *models.Meeting {
	copied := *meeting
	if meeting.ConversationID != nil {
		v := *meeting.ConversationID
		copied.ConversationID = &v
	}
	if meeting.Rating != nil {
		v := *meeting.Rating
		copied.Rating = &v
	}
	return &copied
}

func copyFeedback(feedback *models.Feedback) *models.Feedback {
	copied := *feedback
	if feedback.MeetingID != nil {
		v := *feedback.MeetingID
		copied.MeetingID = &v
	}
	return &copied
}
