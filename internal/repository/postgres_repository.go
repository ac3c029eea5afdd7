package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/skillbridge/skillbridge-server/internal/models"
)

const pqUniqueViolation = "23505"

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, role, bio, location, languages,
			timezone, avatar, verified, sessions_taught, sessions_learned, avg_rating,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = "user"
	}
	if user.Languages == nil {
		user.Languages = pq.StringArray{}
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.Role, user.Bio,
		user.Location, user.Languages, user.Timezone, user.Avatar, user.Verified,
		user.SessionsTaught, user.SessionsLearned, user.AvgRating,
		user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	if err := r.loadProfileCollections(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if err := r.loadProfileCollections(ctx, &users[i]); err != nil {
			return nil, err
		}
	}

	return users, nil
}

// loadProfileCollections fills the skill and certification lists stored in
// their own tables.
func (r *PostgresRepository) loadProfileCollections(ctx context.Context, user *models.User) error {
	user.SkillsTeaching = []models.TeachingSkill{}
	err := r.db.SelectContext(ctx, &user.SkillsTeaching,
		`SELECT * FROM teaching_skills WHERE user_id = $1 ORDER BY name`, user.ID)
	if err != nil {
		return err
	}

	user.SkillsLearning = []string{}
	err = r.db.SelectContext(ctx, &user.SkillsLearning,
		`SELECT name FROM learning_skills WHERE user_id = $1 ORDER BY name`, user.ID)
	if err != nil {
		return err
	}

	user.Certifications = []models.Certification{}
	err = r.db.SelectContext(ctx, &user.Certifications,
		`SELECT * FROM certifications WHERE user_id = $1 ORDER BY name`, user.ID)

	return err
}

func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1, bio = $2, location = $3, languages = $4, timezone = $5,
			avatar = $6, updated_at = $7
		WHERE id = $8
	`

	user.UpdatedAt = time.Now().UTC()
	if user.Languages == nil {
		user.Languages = pq.StringArray{}
	}

	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.Bio, user.Location, user.Languages, user.Timezone,
		user.Avatar, user.UpdatedAt, user.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) MarkUserVerified(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET verified = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), userID)
	return err
}

// Profile sub-collection methods
func (r *PostgresRepository) AddTeachingSkill(ctx context.Context, skill *models.TeachingSkill) error {
	query := `
		INSERT INTO teaching_skills (user_id, name, sessions, rating)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		skill.UserID, skill.Name, skill.Sessions, skill.Rating)
	if isUniqueViolation(err) {
		return models.NewValidationError("skill %q is already listed", skill.Name)
	}

	return err
}

func (r *PostgresRepository) RemoveTeachingSkill(ctx context.Context, userID, name string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM teaching_skills WHERE user_id = $1 AND LOWER(name) = LOWER($2)`,
		userID, name)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (r *PostgresRepository) AddLearningSkill(ctx context.Context, userID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO learning_skills (user_id, name) VALUES ($1, $2)`,
		userID, name)
	if isUniqueViolation(err) {
		return models.NewValidationError("skill %q is already listed", name)
	}
	return err
}

func (r *PostgresRepository) RemoveLearningSkill(ctx context.Context, userID, name string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM learning_skills WHERE user_id = $1 AND LOWER(name) = LOWER($2)`,
		userID, name)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

func (r *PostgresRepository) AddCertification(ctx context.Context, cert *models.Certification) error {
	if cert.ID == "" {
		cert.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO certifications (id, user_id, name, issuer, year, file_url)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cert.ID, cert.UserID, cert.Name, cert.Issuer, cert.Year, cert.FileURL)
	return err
}

func (r *PostgresRepository) RemoveCertification(ctx context.Context, userID, certID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM certifications WHERE user_id = $1 AND id = $2`, userID, certID)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Wallet and ledger methods
func (r *PostgresRepository) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Wallet not created yet
		}
		return nil, err
	}

	return &wallet, nil
}

func (r *PostgresRepository) GetOrCreateWallet(
	ctx context.Context,
	userID string,
	startingBalance int,
	bonus *models.Transaction,
) (*models.Wallet, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	now := time.Now().UTC()

	var wallet models.Wallet
	err = tx.GetContext(ctx, &wallet, `
		INSERT INTO wallets (user_id, balance, total_earned, total_spent, created_at, updated_at)
		VALUES ($1, $2, $2, 0, $3, $3)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING *
	`, userID, startingBalance, now)

	if errors.Is(err, sql.ErrNoRows) {
		// Wallet already exists
		err = tx.GetContext(ctx, &wallet, `SELECT * FROM wallets WHERE user_id = $1`, userID)
		if err != nil {
			return nil, err
		}
		if err = tx.Commit(); err != nil {
			return nil, err
		}
		return &wallet, nil
	}
	if err != nil {
		return nil, err
	}

	// New wallet: record the welcome bonus in the same transaction
	if bonus.ID == "" {
		bonus.ID = uuid.New().String()
	}
	bonus.UserID = userID
	bonus.Amount = startingBalance
	bonus.CreatedAt = now

	err = r.insertTransactionTx(ctx, tx, bonus)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &wallet, nil
}

func (r *PostgresRepository) ApplyTransaction(ctx context.Context, txn *models.Transaction) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	now := time.Now().UTC()
	var balance int

	if txn.Amount >= 0 {
		err = tx.QueryRowContext(ctx, `
			UPDATE wallets
			SET balance = balance + $1, total_earned = total_earned + $1, updated_at = $2
			WHERE user_id = $3
			RETURNING balance
		`, txn.Amount, now, txn.UserID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			err = models.ErrNotFound
		}
		if err != nil {
			return 0, err
		}
	} else {
		// The sufficiency check and the debit are one conditional update so
		// concurrent spends cannot interleave past it.
		debit := -txn.Amount
		err = tx.QueryRowContext(ctx, `
			UPDATE wallets
			SET balance = balance - $1, total_spent = total_spent + $1, updated_at = $2
			WHERE user_id = $3 AND balance >= $1
			RETURNING balance
		`, debit, now, txn.UserID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			var current int
			gerr := tx.QueryRowContext(ctx,
				`SELECT balance FROM wallets WHERE user_id = $1`, txn.UserID).Scan(&current)
			if errors.Is(gerr, sql.ErrNoRows) {
				err = models.ErrNotFound
			} else if gerr != nil {
				err = gerr
			} else {
				err = &models.InsufficientCreditsError{Required: debit, Balance: current}
			}
		}
		if err != nil {
			return 0, err
		}
	}

	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	txn.CreatedAt = now

	err = r.insertTransactionTx(ctx, tx, txn)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}

	return balance, nil
}

func (r *PostgresRepository) insertTransactionTx(ctx context.Context, tx *sqlx.Tx, txn *models.Transaction) error {
	query := `
		INSERT INTO credit_transactions (id, user_id, type, amount, description, meeting_id, other_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.ExecContext(ctx, query,
		txn.ID, txn.UserID, txn.Type, txn.Amount, txn.Description,
		txn.MeetingID, txn.OtherUserID, txn.CreatedAt)
	return err
}

func (r *PostgresRepository) ListTransactions(
	ctx context.Context,
	userID string,
	limit,
	offset int,
) ([]models.Transaction, int, error) {
	var transactions []models.Transaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

func (r *PostgresRepository) MonthlyStats(
	ctx context.Context,
	userID string,
	since time.Time,
) (int, int, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0) AS earned,
			COALESCE(SUM(CASE WHEN amount < 0 THEN -amount ELSE 0 END), 0) AS spent
		FROM credit_transactions
		WHERE user_id = $1 AND created_at >= $2
	`

	var stats struct {
		Earned int `db:"earned"`
		Spent  int `db:"spent"`
	}
	err := r.db.GetContext(ctx, &stats, query, userID, since)
	if err != nil {
		return 0, 0, err
	}

	return stats.Earned, stats.Spent, nil
}

// Meeting repository methods
func (r *PostgresRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	query := `
		INSERT INTO meetings (id, created_by, partner_id, title, starts_at, duration,
			conversation_id, provider, room_name, join_url, session_type, skill, status,
			rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		meeting.ID, meeting.CreatedBy, meeting.PartnerID, meeting.Title,
		meeting.StartsAt, meeting.Duration, meeting.ConversationID, meeting.Provider,
		meeting.RoomName, meeting.JoinURL, meeting.SessionType, meeting.Skill,
		meeting.Status, meeting.Rating, meeting.CreatedAt, meeting.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetMeeting(ctx context.Context, id string) (*models.Meeting, error) {
	var meeting models.Meeting
	err := r.db.GetContext(ctx, &meeting, `SELECT * FROM meetings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Meeting not found
		}
		return nil, err
	}

	return &meeting, nil
}

func (r *PostgresRepository) ListScheduledMeetings(ctx context.Context, userID string) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := r.db.SelectContext(ctx, &meetings, `
		SELECT * FROM meetings
		WHERE (created_by = $1 OR partner_id = $1) AND status = $2
		ORDER BY starts_at ASC
		LIMIT 200
	`, userID, models.StatusScheduled)
	if err != nil {
		return nil, err
	}

	return meetings, nil
}

func (r *PostgresRepository) ListMeetingHistory(
	ctx context.Context,
	userID,
	status string,
	limit int,
) ([]models.Meeting, error) {
	query := `SELECT * FROM meetings WHERE (created_by = $1 OR partner_id = $1)`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}

	query += ` ORDER BY starts_at DESC`

	if limit > 0 {
		query += ` LIMIT ` + placeholder(len(args)+1)
		args = append(args, limit)
	}

	var meetings []models.Meeting
	err := r.db.SelectContext(ctx, &meetings, query, args...)
	if err != nil {
		return nil, err
	}

	return meetings, nil
}

func (r *PostgresRepository) ListPastMeetings(
	ctx context.Context,
	userID string,
	before time.Time,
	limit int,
) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := r.db.SelectContext(ctx, &meetings, `
		SELECT * FROM meetings
		WHERE (created_by = $1 OR partner_id = $1) AND starts_at < $2
		ORDER BY starts_at DESC
		LIMIT $3
	`, userID, before, limit)
	if err != nil {
		return nil, err
	}

	return meetings, nil
}

func (r *PostgresRepository) CompleteMeeting(ctx context.Context, id string) (bool, error) {
	return r.transitionMeeting(ctx, id, models.StatusScheduled, models.StatusCompleted)
}

func (r *PostgresRepository) CancelMeeting(ctx context.Context, id string) (bool, error) {
	return r.transitionMeeting(ctx, id, models.StatusScheduled, models.StatusCancelled)
}

// transitionMeeting flips the status only when the row is still in the
// expected state, so repeated or racing calls change it at most once.
func (r *PostgresRepository) transitionMeeting(ctx context.Context, id, from, to string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, to, time.Now().UTC(), id, from)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *PostgresRepository) SetMeetingRating(ctx context.Context, id string, rating int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE meetings SET rating = $1, updated_at = $2
		WHERE id = $3 AND status = $4 AND rating IS NULL
	`, rating, time.Now().UTC(), id, models.StatusCompleted)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *PostgresRepository) DeleteMeeting(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result)
}

// Feedback repository methods
func (r *PostgresRepository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	feedback.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback (id, from_user_id, to_user_id, meeting_id, skill, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, feedback.ID, feedback.FromUserID, feedback.ToUserID, feedback.MeetingID,
		feedback.Skill, feedback.Rating, feedback.Comment, feedback.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrDuplicateFeedback
	}

	return err
}

func (r *PostgresRepository) ListFeedbackReceived(ctx context.Context, userID string, limit int) ([]models.Feedback, error) {
	return r.listFeedback(ctx, `to_user_id`, userID, limit)
}

func (r *PostgresRepository) ListFeedbackGiven(ctx context.Context, userID string, limit int) ([]models.Feedback, error) {
	return r.listFeedback(ctx, `from_user_id`, userID, limit)
}

func (r *PostgresRepository) listFeedback(ctx context.Context, column, userID string, limit int) ([]models.Feedback, error) {
	query := `SELECT * FROM feedback WHERE ` + column + ` = $1 ORDER BY created_at DESC`
	args := []interface{}{userID}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var feedbacks []models.Feedback
	err := r.db.SelectContext(ctx, &feedbacks, query, args...)
	if err != nil {
		return nil, err
	}

	return feedbacks, nil
}

// Reputation repository methods
func (r *PostgresRepository) IncrementTeachingStats(ctx context.Context, teacherID, skill string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	_, err = tx.ExecContext(ctx, `
		UPDATE teaching_skills SET sessions = sessions + 1
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)
	`, teacherID, skill)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET sessions_taught = sessions_taught + 1, updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), teacherID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) IncrementSessionsLearned(ctx context.Context, learnerID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET sessions_learned = sessions_learned + 1, updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), learnerID)
	return err
}

func (r *PostgresRepository) ApplySkillRating(ctx context.Context, teacherID, skill string, rating int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Row lock serializes concurrent running-average updates for the same
	// teacher/skill.
	var current models.TeachingSkill
	err = tx.GetContext(ctx, &current, `
		SELECT * FROM teaching_skills
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)
		FOR UPDATE
	`, teacherID, skill)
	if errors.Is(err, sql.ErrNoRows) {
		// Teacher does not list the skill; nothing to fold the rating into.
		err = nil
		return tx.Commit()
	}
	if err != nil {
		return err
	}

	sessions := current.Sessions
	if sessions < 1 {
		sessions = 1
	}
	newAvg := (current.Rating*float64(sessions-1) + float64(rating)) / float64(sessions)
	newAvg = roundToTenth(newAvg)

	_, err = tx.ExecContext(ctx, `
		UPDATE teaching_skills SET rating = $1 WHERE user_id = $2 AND name = $3
	`, newAvg, teacherID, current.Name)
	if err != nil {
		return err
	}

	// Overall average is the mean of the per-skill averages that have at
	// least one rating.
	var ratings []float64
	err = tx.SelectContext(ctx, &ratings, `
		SELECT rating FROM teaching_skills WHERE user_id = $1 AND rating > 0
	`, teacherID)
	if err != nil {
		return err
	}

	if len(ratings) > 0 {
		var sum float64
		for _, v := range ratings {
			sum += v
		}
		overall := roundToTenth(sum / float64(len(ratings)))

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET avg_rating = $1, updated_at = $2 WHERE id = $3
		`, overall, time.Now().UTC(), teacherID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) RecomputeUserStats(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Lock the profile row so concurrent recomputations apply in order.
	var id string
	err = tx.GetContext(ctx, &id, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = models.ErrNotFound
		return err
	}
	if err != nil {
		return err
	}

	var rows []struct {
		Rating    int     `db:"rating"`
		MeetingID *string `db:"meeting_id"`
	}
	err = tx.SelectContext(ctx, &rows,
		`SELECT rating, meeting_id FROM feedback WHERE to_user_id = $1`, userID)
	if err != nil {
		return err
	}

	var sum int
	meetings := make(map[string]struct{})
	for _, row := range rows {
		sum += row.Rating
		if row.MeetingID != nil {
			meetings[*row.MeetingID] = struct{}{}
		}
	}

	avg := 0.0
	if len(rows) > 0 {
		avg = roundToTenth(float64(sum) / float64(len(rows)))
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET avg_rating = $1, sessions_taught = $2, updated_at = $3
		WHERE id = $4
	`, avg, len(meetings), time.Now().UTC(), userID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Verification code methods
func (r *PostgresRepository) CreateVerificationCode(ctx context.Context, code *models.VerificationCode) error {
	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	code.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verification_codes (id, email, user_id, code, purpose, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, code.ID, code.Email, code.UserID, code.Code, code.Purpose, code.ExpiresAt, code.CreatedAt)

	return err
}

func (r *PostgresRepository) ConsumeVerificationCode(
	ctx context.Context,
	email,
	code,
	purpose string,
	now time.Time,
) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.GetContext(ctx, &vc, `
		DELETE FROM verification_codes
		WHERE email = $1 AND code = $2 AND purpose = $3 AND expires_at > $4
		RETURNING *
	`, email, code, purpose, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No matching unexpired code
		}
		return nil, err
	}

	return &vc, nil
}

// Helpers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
