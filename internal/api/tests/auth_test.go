package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/skillbridge/skillbridge-server/internal/api/testutils"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRegister(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	// Test case 1: Successful registration
	registerReq := models.RegisterRequest{
		Name:     "New User",
		Email:    "newuser@example.com",
		Password: "Password123",
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		registerReq,
		nil,
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	var registerResp models.RegisterResponse
	err := json.Unmarshal(w.Body.Bytes(), &registerResp)
	assert.NoError(t, err)
	assert.True(t, registerResp.RequiresVerification)
	assert.Equal(t, "newuser@example.com", registerResp.Email)

	// Test case 2: Duplicate email
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		registerReq,
		nil,
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 3: Invalid request (missing required fields)
	invalidReq := models.RegisterRequest{
		Email: "invalid@example.com",
	}

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		invalidReq,
		nil,
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerify(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	registerReq := models.RegisterRequest{
		Name:     "Pending User",
		Email:    "pending@example.com",
		Password: "Password123",
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/register",
		registerReq,
		nil,
	)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Plant a known code; the generated one only goes to the notifier.
	user, err := testCtx.Repository.GetUserByEmail(context.Background(), "pending@example.com")
	assert.NoError(t, err)
	assert.NotNil(t, user)

	err = testCtx.Repository.CreateVerificationCode(context.Background(), &models.VerificationCode{
		Email:     "pending@example.com",
		UserID:    user.ID,
		Code:      "123456",
		Purpose:   "signup",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	})
	assert.NoError(t, err)

	// Test case 1: Wrong code
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/verify",
		models.VerifyRequest{Email: "pending@example.com", Code: "000000"},
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 2: Correct code returns a token
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/verify",
		models.VerifyRequest{Email: "pending@example.com", Code: "123456"},
		nil,
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var authResp models.AuthResponse
	err = json.Unmarshal(w.Body.Bytes(), &authResp)
	assert.NoError(t, err)
	assert.NotEmpty(t, authResp.Token)

	// Test case 3: Code is consumed, second attempt fails
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/verify",
		models.VerifyRequest{Email: "pending@example.com", Code: "123456"},
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	testCtx.CreateTestUser(t, "Test User", "testuser@example.com")

	// Test case 1: Successful login
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Email: "testuser@example.com", Password: "testpassword"},
		nil,
	)

	assert.Equal(t, http.StatusOK, w.Code)

	var authResp models.AuthResponse
	err := json.Unmarshal(w.Body.Bytes(), &authResp)
	assert.NoError(t, err)
	assert.NotEmpty(t, authResp.Token)

	// Test case 2: Invalid credentials
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Email: "testuser@example.com", Password: "wrongpassword"},
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: User not found
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Email: "nonexistent@example.com", Password: "testpassword"},
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/credits/wallet", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/credits/wallet",
		nil,
		testutils.AuthHeaders("not-a-token"),
	)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
