package models

// Request models
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name      *string  `json:"name"`
	Bio       *string  `json:"bio"`
	Location  *string  `json:"location"`
	Languages []string `json:"languages"`
	Timezone  *string  `json:"timezone"`
	Avatar    *string  `json:"avatar"`
}

type AddTeachingSkillRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddLearningSkillRequest struct {
	Name string `json:"name" binding:"required"`
}

type AddCertificationRequest struct {
	Name    string `json:"name" binding:"required"`
	Issuer  string `json:"issuer"`
	Year    string `json:"year"`
	FileURL string `json:"fileUrl"`
}

type ScheduleMeetingRequest struct {
	OtherUserID    string `json:"otherUserId" binding:"required"`
	ConversationID string `json:"conversationId"`
	Title          string `json:"title" binding:"required"`
	StartsAt       string `json:"startsAt" binding:"required"`
	Duration       int    `json:"duration"`
	SessionType    string `json:"sessionType" binding:"required,oneof=teaching learning"`
	Skill          string `json:"skill"`
}

type RateMeetingRequest struct {
	Rating int `json:"rating" binding:"required"`
}

type SubmitFeedbackRequest struct {
	ToUserID  string `json:"toUserId" binding:"required"`
	MeetingID string `json:"meetingId"`
	Skill     string `json:"skill" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

// Response models
type RegisterResponse struct {
	Status               string `json:"status"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requiresVerification"`
	Message              string `json:"message"`
}

type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type WalletResponse struct {
	Status          string `json:"status"`
	Balance         int    `json:"balance"`
	TotalEarned     int    `json:"totalEarned"`
	TotalSpent      int    `json:"totalSpent"`
	EarnedThisMonth int    `json:"earnedThisMonth"`
	SpentThisMonth  int    `json:"spentThisMonth"`
}

type TransactionsResponse struct {
	Status       string        `json:"status"`
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
	HasMore      bool          `json:"hasMore"`
}

type BalanceCheckResponse struct {
	Status           string `json:"status"`
	Balance          int    `json:"balance"`
	SessionCost      int    `json:"sessionCost"`
	CanAffordSession bool   `json:"canAffordSession"`
}

type MeetingResponse struct {
	Status  string   `json:"status"`
	Meeting *Meeting `json:"meeting"`
}

type MeetingsResponse struct {
	Status   string    `json:"status"`
	Meetings []Meeting `json:"meetings"`
}

type UserResponse struct {
	Status string `json:"status"`
	User   *User  `json:"user"`
}

type UsersResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Users  []User `json:"users"`
}

type FeedbackResponse struct {
	Status   string    `json:"status"`
	Feedback *Feedback `json:"feedback"`
}

// FeedbackItem is a display-oriented view of one feedback entry.
type FeedbackItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Avatar    string  `json:"avatar"`
	Type      string  `json:"type"`
	Rating    int     `json:"rating"`
	Date      string  `json:"date"`
	Comment   string  `json:"comment"`
	Skill     string  `json:"skill"`
	MeetingID *string `json:"meetingId,omitempty"`
}

type FeedbackListResponse struct {
	Status    string         `json:"status"`
	Feedbacks []FeedbackItem `json:"feedbacks"`
}

// PendingFeedbackItem is a past meeting the user has not yet left feedback
// for.
type PendingFeedbackItem struct {
	MeetingID   string `json:"meetingId"`
	Person      string `json:"person"`
	Avatar      string `json:"avatar"`
	Skill       string `json:"skill"`
	Date        string `json:"date"`
	OtherUserID string `json:"otherUserId"`
}

type PendingFeedbackResponse struct {
	Status  string                `json:"status"`
	Pending []PendingFeedbackItem `json:"pending"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Required int    `json:"required,omitempty"`
	Balance  int    `json:"balance,omitempty"`
}
