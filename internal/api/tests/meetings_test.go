package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/skillbridge/skillbridge-server/internal/api/testutils"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestScheduleMeetingMovesCredits(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	learnerID, learnerToken := testCtx.CreateTestUser(t, "Learner", "learner@example.com")
	teacherID, teacherToken := testCtx.CreateTestUser(t, "Teacher", "teacher@example.com")

	startsAt := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/meetings",
		models.ScheduleMeetingRequest{
			OtherUserID: teacherID,
			Title:       "Spanish conversation practice",
			StartsAt:    startsAt,
			Duration:    60,
			SessionType: models.SessionLearning,
			Skill:       "Spanish",
		},
		testutils.AuthHeaders(learnerToken),
	)
	assert.Equal(t, http.StatusCreated, w.Code)

	var meetingResp models.MeetingResponse
	err := json.Unmarshal(w.Body.Bytes(), &meetingResp)
	assert.NoError(t, err)
	meeting := meetingResp.Meeting
	assert.NotEmpty(t, meeting.ID)
	assert.Equal(t, models.StatusScheduled, meeting.Status)
	assert.Equal(t, learnerID, meeting.LearnerID())
	assert.Equal(t, teacherID, meeting.TeacherID())
	assert.Equal(t, "jitsi", meeting.Provider)
	assert.Contains(t, meeting.RoomName, "skillbridge-general-")
	assert.Contains(t, meeting.JoinURL, "https://meet.jit.si/")

	// Learner paid, teacher earned
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/credits/wallet", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var learnerWallet models.WalletResponse
	err = json.Unmarshal(w.Body.Bytes(), &learnerWallet)
	assert.NoError(t, err)
	assert.Equal(t, testCtx.Credits.StartingBalance-testCtx.Credits.SessionCost, learnerWallet.Balance)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/credits/wallet", nil, testutils.AuthHeaders(teacherToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var teacherWallet models.WalletResponse
	err = json.Unmarshal(w.Body.Bytes(), &teacherWallet)
	assert.NoError(t, err)
	assert.Equal(t, testCtx.Credits.StartingBalance+testCtx.Credits.SessionCost, teacherWallet.Balance)

	// Both transactions reference the meeting
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/credits/transactions", nil, testutils.AuthHeaders(teacherToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var txResp models.TransactionsResponse
	err = json.Unmarshal(w.Body.Bytes(), &txResp)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionTeaching, txResp.Transactions[0].Type)
	assert.NotNil(t, txResp.Transactions[0].MeetingID)
	assert.Equal(t, meeting.ID, *txResp.Transactions[0].MeetingID)

	// The meeting shows up for both participants
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/meetings", nil, testutils.AuthHeaders(teacherToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var meetingsResp models.MeetingsResponse
	err = json.Unmarshal(w.Body.Bytes(), &meetingsResp)
	assert.NoError(t, err)
	assert.Len(t, meetingsResp.Meetings, 1)
}

func TestScheduleMeetingValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	userID, token := testCtx.CreateTestUser(t, "Solo", "solo@example.com")
	partnerID, _ := testCtx.CreateTestUser(t, "Partner", "partner2@example.com")

	// Self-scheduling
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/meetings",
		models.ScheduleMeetingRequest{
			OtherUserID: userID,
			Title:       "Talking to myself",
			StartsAt:    "2026-10-01T10:00:00Z",
			SessionType: models.SessionLearning,
		},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown partner
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/meetings",
		models.ScheduleMeetingRequest{
			OtherUserID: "00000000-0000-0000-0000-000000000000",
			Title:       "Ghost session",
			StartsAt:    "2026-10-01T10:00:00Z",
			SessionType: models.SessionLearning,
		},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Bad timestamp
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/meetings",
		models.ScheduleMeetingRequest{
			OtherUserID: partnerID,
			Title:       "Bad date",
			StartsAt:    "next tuesday",
			SessionType: models.SessionLearning,
		},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleMeetingInsufficientCredits(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, learnerToken := testCtx.CreateTestUser(t, "Broke", "broke@example.com")
	partnerID, _ := testCtx.CreateTestUser(t, "Rich", "rich@example.com")

	// Drain the balance: 100 credits afford exactly 4 sessions at 25
	sessions := testCtx.Credits.StartingBalance / testCtx.Credits.SessionCost
	for i := 0; i < sessions; i++ {
		w := testutils.PerformRequest(
			testCtx.Router,
			http.MethodPost,
			"/api/meetings",
			models.ScheduleMeetingRequest{
				OtherUserID: partnerID,
				Title:       fmt.Sprintf("Session %d", i),
				StartsAt:    "2026-10-01T10:00:00Z",
				SessionType: models.SessionLearning,
			},
			testutils.AuthHeaders(learnerToken),
		)
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	// The next one fails and reports the shortfall
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/meetings",
		models.ScheduleMeetingRequest{
			OtherUserID: partnerID,
			Title:       "One too many",
			StartsAt:    "2026-10-01T10:00:00Z",
			SessionType: models.SessionLearning,
		},
		testutils.AuthHeaders(learnerToken),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &errResp)
	assert.NoError(t, err)
	assert.Equal(t, "INSUFFICIENT_CREDITS", errResp.Code)
	assert.Equal(t, testCtx.Credits.SessionCost, errResp.Required)
	assert.Equal(t, 0, errResp.Balance)

	// The failed meeting was rolled back
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/meetings", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var meetingsResp models.MeetingsResponse
	err = json.Unmarshal(w.Body.Bytes(), &meetingsResp)
	assert.NoError(t, err)
	assert.Len(t, meetingsResp.Meetings, sessions)
}

func TestCancelMeeting(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, learnerToken := testCtx.CreateTestUser(t, "Canceller", "canceller@example.com")
	partnerID, partnerToken := testCtx.CreateTestUser(t, "Other", "other@example.com")
	_, strangerToken := testCtx.CreateTestUser(t, "Stranger", "stranger@example.com")

	meeting := scheduleMeeting(t, testCtx, learnerToken, partnerID, "2026-10-01T10:00:00Z")

	// A non-participant cannot cancel
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/cancel", nil, testutils.AuthHeaders(strangerToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Either participant can
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/cancel", nil, testutils.AuthHeaders(partnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var meetingResp models.MeetingResponse
	err := json.Unmarshal(w.Body.Bytes(), &meetingResp)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, meetingResp.Meeting.Status)

	// Cancelling twice fails
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/cancel", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Credits are not returned on cancellation
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/credits/wallet", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var walletResp models.WalletResponse
	err = json.Unmarshal(w.Body.Bytes(), &walletResp)
	assert.NoError(t, err)
	assert.Equal(t, testCtx.Credits.StartingBalance-testCtx.Credits.SessionCost, walletResp.Balance)
}

func TestRateMeeting(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, learnerToken := testCtx.CreateTestUser(t, "Rater", "rater@example.com")
	teacherID, teacherToken := testCtx.CreateTestUser(t, "Rated", "rated@example.com")

	addTeachingSkill(t, testCtx, teacherToken, "Spanish")

	// A session that already ended
	past := time.Now().Add(-2 * time.Hour).UTC().Format(time.RFC3339)
	meeting := scheduleMeeting(t, testCtx, learnerToken, teacherID, past)

	// Rating before completion fails
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/rate",
		models.RateMeetingRequest{Rating: 5},
		testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Listing meetings sweeps the expired one to completed
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/meetings", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var meetingsResp models.MeetingsResponse
	err := json.Unmarshal(w.Body.Bytes(), &meetingsResp)
	assert.NoError(t, err)
	assert.Empty(t, meetingsResp.Meetings)

	// Out-of-range ratings rejected
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/rate",
		models.RateMeetingRequest{Rating: 6},
		testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The teacher cannot rate
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/rate",
		models.RateMeetingRequest{Rating: 5},
		testutils.AuthHeaders(teacherToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The learner rates once
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/rate",
		models.RateMeetingRequest{Rating: 5},
		testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var meetingResp models.MeetingResponse
	err = json.Unmarshal(w.Body.Bytes(), &meetingResp)
	assert.NoError(t, err)
	assert.NotNil(t, meetingResp.Meeting.Rating)
	assert.Equal(t, 5, *meetingResp.Meeting.Rating)

	// Second rating fails
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost,
		"/api/meetings/"+meeting.ID+"/rate",
		models.RateMeetingRequest{Rating: 4},
		testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The rating landed on the teacher's skill profile
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/users/me", nil, testutils.AuthHeaders(teacherToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var userResp models.UserResponse
	err = json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Len(t, userResp.User.SkillsTeaching, 1)
	assert.Equal(t, 5.0, userResp.User.SkillsTeaching[0].Rating)
	assert.Equal(t, 5.0, userResp.User.AvgRating)
}

func TestSweepIncrementsSessionCounters(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, learnerToken := testCtx.CreateTestUser(t, "Counting Learner", "clearner@example.com")
	teacherID, teacherToken := testCtx.CreateTestUser(t, "Counting Teacher", "cteacher@example.com")

	addTeachingSkill(t, testCtx, teacherToken, "Spanish")

	past := time.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339)
	scheduleMeeting(t, testCtx, learnerToken, teacherID, past)

	// Sweep twice; the flip only counts once
	for i := 0; i < 2; i++ {
		w := testutils.PerformRequest(testCtx.Router, http.MethodGet,
			"/api/meetings", nil, testutils.AuthHeaders(learnerToken))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/users/me", nil, testutils.AuthHeaders(teacherToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var userResp models.UserResponse
	err := json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Equal(t, 1, userResp.User.SessionsTaught)
	assert.Equal(t, 1, userResp.User.SkillsTeaching[0].Sessions)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/users/me", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Equal(t, 1, userResp.User.SessionsLearned)

	// The completed meeting is in the history
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/meetings/history?status=completed", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var meetingsResp models.MeetingsResponse
	err = json.Unmarshal(w.Body.Bytes(), &meetingsResp)
	assert.NoError(t, err)
	assert.Len(t, meetingsResp.Meetings, 1)
	assert.Equal(t, models.StatusCompleted, meetingsResp.Meetings[0].Status)
}

func TestDeleteMeeting(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, creatorToken := testCtx.CreateTestUser(t, "Creator", "creator@example.com")
	partnerID, partnerToken := testCtx.CreateTestUser(t, "Invitee", "invitee@example.com")

	meeting := scheduleMeeting(t, testCtx, creatorToken, partnerID, "2026-10-01T10:00:00Z")

	// Only the creator may delete
	w := testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		"/api/meetings/"+meeting.ID, nil, testutils.AuthHeaders(partnerToken))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		"/api/meetings/"+meeting.ID, nil, testutils.AuthHeaders(creatorToken))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete,
		"/api/meetings/"+meeting.ID, nil, testutils.AuthHeaders(creatorToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// addTeachingSkill lists a skill on the token holder's profile.
func addTeachingSkill(t *testing.T, testCtx *testutils.TestContext, token, name string) {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users/me/skills/teaching",
		models.AddTeachingSkillRequest{Name: name},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)
}

// scheduleMeeting creates a learning session from the token holder with the
// given partner and returns it.
func scheduleMeeting(
	t *testing.T,
	testCtx *testutils.TestContext,
	token, partnerID, startsAt string,
) *models.Meeting {
	t.Helper()

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/meetings",
		models.ScheduleMeetingRequest{
			OtherUserID: partnerID,
			Title:       "Session",
			StartsAt:    startsAt,
			Duration:    60,
			SessionType: models.SessionLearning,
			Skill:       "Spanish",
		},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusCreated, w.Code)

	var meetingResp models.MeetingResponse
	err := json.Unmarshal(w.Body.Bytes(), &meetingResp)
	assert.NoError(t, err)

	return meetingResp.Meeting
}
