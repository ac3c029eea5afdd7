package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/skillbridge/skillbridge-server/internal/service"
)

// Handler holds the API handlers
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes configures all the API routes
func (h *Handler) SetupRoutes(router *gin.Engine, jwtSecret []byte) {
	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/verify", h.Verify)
		auth.POST("/login", h.Login)
	}

	protected := api.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		users := protected.Group("/users")
		{
			users.GET("", h.ListUsers)
			users.GET("/me", h.GetProfile)
			users.PUT("/me", h.UpdateProfile)
			users.POST("/me/skills/teaching", h.AddTeachingSkill)
			users.DELETE("/me/skills/teaching/:name", h.RemoveTeachingSkill)
			users.POST("/me/skills/learning", h.AddLearningSkill)
			users.DELETE("/me/skills/learning/:name", h.RemoveLearningSkill)
			users.POST("/me/certifications", h.AddCertification)
			users.DELETE("/me/certifications/:id", h.RemoveCertification)
		}

		credits := protected.Group("/credits")
		{
			credits.GET("/wallet", h.GetWallet)
			credits.GET("/transactions", h.ListTransactions)
			credits.GET("/check-balance", h.CheckBalance)
		}

		meetings := protected.Group("/meetings")
		{
			meetings.GET("", h.ListMeetings)
			meetings.GET("/history", h.MeetingHistory)
			meetings.POST("", h.ScheduleMeeting)
			meetings.POST("/:id/rate", h.RateMeeting)
			meetings.POST("/:id/cancel", h.CancelMeeting)
			meetings.DELETE("/:id", h.DeleteMeeting)
		}

		feedback := protected.Group("/feedback")
		{
			feedback.POST("", h.SubmitFeedback)
			feedback.GET("/received", h.FeedbackReceived)
			feedback.GET("/given", h.FeedbackGiven)
			feedback.GET("/pending", h.PendingFeedback)
		}
	}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Verify handles POST /api/auth/verify
func (h *Handler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.svc.VerifyCode(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetProfile handles GET /api/users/me
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.svc.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// ListUsers handles GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UsersResponse{
		Status: "success",
		Count:  len(users),
		Users:  users,
	})
}

// UpdateProfile handles PUT /api/users/me
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.svc.UpdateProfile(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// AddTeachingSkill handles POST /api/users/me/skills/teaching
func (h *Handler) AddTeachingSkill(c *gin.Context) {
	var req models.AddTeachingSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.svc.AddTeachingSkill(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// RemoveTeachingSkill handles DELETE /api/users/me/skills/teaching/:name
func (h *Handler) RemoveTeachingSkill(c *gin.Context) {
	user, err := h.svc.RemoveTeachingSkill(c.Request.Context(), currentUserID(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// AddLearningSkill handles POST /api/users/me/skills/learning
func (h *Handler) AddLearningSkill(c *gin.Context) {
	var req models.AddLearningSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.svc.AddLearningSkill(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// RemoveLearningSkill handles DELETE /api/users/me/skills/learning/:name
func (h *Handler) RemoveLearningSkill(c *gin.Context) {
	user, err := h.svc.RemoveLearningSkill(c.Request.Context(), currentUserID(c), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// AddCertification handles POST /api/users/me/certifications
func (h *Handler) AddCertification(c *gin.Context) {
	var req models.AddCertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.svc.AddCertification(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// RemoveCertification handles DELETE /api/users/me/certifications/:id
func (h *Handler) RemoveCertification(c *gin.Context) {
	user, err := h.svc.RemoveCertification(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{Status: "success", User: user})
}

// GetWallet handles GET /api/credits/wallet
func (h *Handler) GetWallet(c *gin.Context) {
	resp, err := h.svc.GetWallet(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListTransactions handles GET /api/credits/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	limit := queryInt(c, "limit", 0)
	offset := queryInt(c, "offset", 0)

	resp, err := h.svc.ListTransactions(c.Request.Context(), currentUserID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckBalance handles GET /api/credits/check-balance
func (h *Handler) CheckBalance(c *gin.Context) {
	resp, err := h.svc.CheckBalance(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ScheduleMeeting handles POST /api/meetings
func (h *Handler) ScheduleMeeting(c *gin.Context) {
	var req models.ScheduleMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	meeting, err := h.svc.ScheduleMeeting(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.MeetingResponse{Status: "success", Meeting: meeting})
}

// ListMeetings handles GET /api/meetings
func (h *Handler) ListMeetings(c *gin.Context) {
	meetings, err := h.svc.ListMeetings(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MeetingsResponse{Status: "success", Meetings: meetings})
}

// MeetingHistory handles GET /api/meetings/history
func (h *Handler) MeetingHistory(c *gin.Context) {
	status := c.Query("status")
	limit := queryInt(c, "limit", 0)

	meetings, err := h.svc.MeetingHistory(c.Request.Context(), currentUserID(c), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MeetingsResponse{Status: "success", Meetings: meetings})
}

// RateMeeting handles POST /api/meetings/:id/rate
func (h *Handler) RateMeeting(c *gin.Context) {
	var req models.RateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	meeting, err := h.svc.RateMeeting(c.Request.Context(), currentUserID(c), c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MeetingResponse{Status: "success", Meeting: meeting})
}

// CancelMeeting handles POST /api/meetings/:id/cancel
func (h *Handler) CancelMeeting(c *gin.Context) {
	meeting, err := h.svc.CancelMeeting(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MeetingResponse{Status: "success", Meeting: meeting})
}

// DeleteMeeting handles DELETE /api/meetings/:id
func (h *Handler) DeleteMeeting(c *gin.Context) {
	if err := h.svc.DeleteMeeting(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Meeting deleted"})
}

// SubmitFeedback handles POST /api/feedback
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req models.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	feedback, err := h.svc.SubmitFeedback(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.FeedbackResponse{Status: "success", Feedback: feedback})
}

// FeedbackReceived handles GET /api/feedback/received
func (h *Handler) FeedbackReceived(c *gin.Context) {
	items, err := h.svc.FeedbackReceived(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FeedbackListResponse{Status: "success", Feedbacks: items})
}

// FeedbackGiven handles GET /api/feedback/given
func (h *Handler) FeedbackGiven(c *gin.Context) {
	items, err := h.svc.FeedbackGiven(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.FeedbackListResponse{Status: "success", Feedbacks: items})
}

// PendingFeedback handles GET /api/feedback/pending
func (h *Handler) PendingFeedback(c *gin.Context) {
	items, err := h.svc.PendingFeedback(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PendingFeedbackResponse{Status: "success", Pending: items})
}

// currentUserID returns the authenticated user ID set by AuthMiddleware
func currentUserID(c *gin.Context) string {
	return c.MustGet("userId").(string)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// respondBindError maps request binding failures to a 400 response
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// respondError maps service errors to HTTP responses
func respondError(c *gin.Context, err error) {
	var insufficient *models.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:   "error",
			Code:     "INSUFFICIENT_CREDITS",
			Message:  insufficient.Error(),
			Required: insufficient.Required,
			Balance:  insufficient.Balance,
		})
		return
	}

	var validation *models.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: validation.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status:  "error",
			Code:    "NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrNotAllowed):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Status:  "error",
			Code:    "FORBIDDEN",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_STATE",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrDuplicateFeedback):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "DUPLICATE_FEEDBACK",
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_AMOUNT",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_CREDENTIALS",
			Message: "Invalid email or password",
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
		})
	}
}
