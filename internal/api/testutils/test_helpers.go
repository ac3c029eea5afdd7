package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/skillbridge/skillbridge-server/internal/api"
	"github.com/skillbridge/skillbridge-server/internal/config"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/skillbridge/skillbridge-server/internal/notify"
	"github.com/skillbridge/skillbridge-server/internal/repository"
	"github.com/skillbridge/skillbridge-server/internal/service"
	"github.com/skillbridge/skillbridge-server/internal/utils"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key"

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	Credits    config.CreditsConfig
	JWTSecret  []byte
}

// SetupTestContext creates a new test context backed by the in-memory
// repository, so tests run without an external database.
func SetupTestContext(t *testing.T) *TestContext {
	credits := config.CreditsConfig{
		StartingBalance: 100,
		SessionCost:     25,
		DefaultDuration: 60,
		MinRating:       1,
		MaxRating:       5,
	}

	repo := repository.NewMemoryRepository()
	notifier := notify.NewLogNotifier(utils.NewLogger())
	svc := service.NewDefaultService(repo, testJWTSecret, credits, notifier)
	handler := api.NewHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router, []byte(testJWTSecret))

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Credits:    credits,
		JWTSecret:  []byte(testJWTSecret),
	}
}

// CreateTestUser inserts a verified user and returns its ID and a signed JWT.
func (tc *TestContext) CreateTestUser(t *testing.T, name, email string) (string, string) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.DefaultCost)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Password: string(hashedPassword),
		Verified: true,
	}

	err := tc.Repository.CreateUser(context.Background(), user)
	assert.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString(tc.JWTSecret)
	assert.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
