package models

import (
	"time"

	"github.com/lib/pq"
)

// Transaction types
const (
	TransactionTeaching = "teaching"
	TransactionLearning = "learning"
	TransactionPurchase = "purchase"
	TransactionBonus    = "bonus"
	TransactionRefund   = "refund"
)

// Session types (from the creator's perspective)
const (
	SessionTeaching = "teaching"
	SessionLearning = "learning"
)

// Meeting statuses
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// User represents a user profile in the system
type User struct {
	ID              string         `db:"id" json:"id"`
	Email           string         `db:"email" json:"email"`
	Name            string         `db:"name" json:"name"`
	Password        string         `db:"password" json:"-"` // Password hash, not returned in JSON
	Role            string         `db:"role" json:"role"`
	Bio             string         `db:"bio" json:"bio"`
	Location        string         `db:"location" json:"location"`
	Languages       pq.StringArray `db:"languages" json:"languages"`
	Timezone        string         `db:"timezone" json:"timezone"`
	Avatar          string         `db:"avatar" json:"avatar"`
	Verified        bool           `db:"verified" json:"verified"`
	SessionsTaught  int            `db:"sessions_taught" json:"sessionsTaught"`
	SessionsLearned int            `db:"sessions_learned" json:"sessionsLearned"`
	AvgRating       float64        `db:"avg_rating" json:"avgRating"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`

	// Loaded separately, not columns on the users table
	SkillsTeaching []TeachingSkill `db:"-" json:"skillsTeaching"`
	SkillsLearning []string        `db:"-" json:"skillsLearning"`
	Certifications []Certification `db:"-" json:"certifications"`
}

// TeachingSkill is a skill a user offers, with its derived session count and
// rolling average rating. The count and rating are owned by the reputation
// aggregation code and must not be written by other callers.
type TeachingSkill struct {
	UserID   string  `db:"user_id" json:"-"`
	Name     string  `db:"name" json:"name"`
	Sessions int     `db:"sessions" json:"sessions"`
	Rating   float64 `db:"rating" json:"rating"`
}

// Certification is a credential attached to a user profile. The file URL is
// an opaque reference into an external media store.
type Certification struct {
	ID      string `db:"id" json:"id"`
	UserID  string `db:"user_id" json:"-"`
	Name    string `db:"name" json:"name"`
	Issuer  string `db:"issuer" json:"issuer"`
	Year    string `db:"year" json:"year"`
	FileURL string `db:"file_url" json:"fileUrl"`
}

// Wallet holds a user's credit balance and lifetime totals. Created lazily
// on the first ledger interaction; mutated only by the ledger code.
type Wallet struct {
	UserID      string    `db:"user_id" json:"userId"`
	Balance     int       `db:"balance" json:"balance"`
	TotalEarned int       `db:"total_earned" json:"totalEarned"`
	TotalSpent  int       `db:"total_spent" json:"totalSpent"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Transaction is one immutable entry in the credit ledger. Amount is signed:
// positive credits the wallet, negative debits it.
type Transaction struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"userId"`
	Type        string    `db:"type" json:"type"`
	Amount      int       `db:"amount" json:"amount"`
	Description string    `db:"description" json:"description"`
	MeetingID   *string   `db:"meeting_id" json:"meetingId,omitempty"`
	OtherUserID *string   `db:"other_user_id" json:"otherUserId,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Meeting is a scheduled teaching/learning session between two users.
type Meeting struct {
	ID             string    `db:"id" json:"id"`
	CreatedBy      string    `db:"created_by" json:"createdBy"`
	PartnerID      string    `db:"partner_id" json:"partnerId"`
	Title          string    `db:"title" json:"title"`
	StartsAt       time.Time `db:"starts_at" json:"startsAt"`
	Duration       int       `db:"duration" json:"duration"` // minutes
	ConversationID *string   `db:"conversation_id" json:"conversationId,omitempty"`
	Provider       string    `db:"provider" json:"provider"`
	RoomName       string    `db:"room_name" json:"roomName"`
	JoinURL        string    `db:"join_url" json:"joinUrl"`
	SessionType    string    `db:"session_type" json:"sessionType"`
	Skill          string    `db:"skill" json:"skill"`
	Status         string    `db:"status" json:"status"`
	Rating         *int      `db:"rating" json:"rating,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// HasParticipant reports whether the user is one of the two participants.
func (m *Meeting) HasParticipant(userID string) bool {
	return m.CreatedBy == userID || m.PartnerID == userID
}

// OtherParticipant returns the participant that is not the given user.
func (m *Meeting) OtherParticipant(userID string) string {
	if m.CreatedBy == userID {
		return m.PartnerID
	}
	return m.CreatedBy
}

// TeacherID returns the participant in the teaching role. The session type
// is recorded from the creator's perspective, so the teacher is the creator
// for teaching sessions and the partner otherwise.
func (m *Meeting) TeacherID() string {
	if m.SessionType == SessionTeaching {
		return m.CreatedBy
	}
	return m.PartnerID
}

// LearnerID returns the participant in the learning role.
func (m *Meeting) LearnerID() string {
	if m.SessionType == SessionLearning {
		return m.CreatedBy
	}
	return m.PartnerID
}

// EndsAt returns the scheduled end time of the meeting.
func (m *Meeting) EndsAt() time.Time {
	duration := m.Duration
	if duration <= 0 {
		duration = 60
	}
	return m.StartsAt.Add(time.Duration(duration) * time.Minute)
}

// Feedback is a rating and comment one user gives another, optionally tied
// to a meeting. At most one per (from, to, meeting) triple.
type Feedback struct {
	ID         string    `db:"id" json:"id"`
	FromUserID string    `db:"from_user_id" json:"fromUserId"`
	ToUserID   string    `db:"to_user_id" json:"toUserId"`
	MeetingID  *string   `db:"meeting_id" json:"meetingId,omitempty"`
	Skill      string    `db:"skill" json:"skill"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// VerificationCode is a short-lived email verification code.
type VerificationCode struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	UserID    string    `db:"user_id" json:"userId"`
	Code      string    `db:"code" json:"-"`
	Purpose   string    `db:"purpose" json:"purpose"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
