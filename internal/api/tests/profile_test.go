package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/skillbridge/skillbridge-server/internal/api/testutils"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestGetAndUpdateProfile(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	userID, token := testCtx.CreateTestUser(t, "Alice", "alice@example.com")

	// Fresh profile
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/users/me",
		nil,
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var userResp models.UserResponse
	err := json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Equal(t, userID, userResp.User.ID)
	assert.Equal(t, "Alice", userResp.User.Name)

	// Partial update: only provided fields change
	bio := "Polyglot and weekend violinist"
	location := "Melbourne"
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/users/me",
		models.UpdateProfileRequest{
			Bio:       &bio,
			Location:  &location,
			Languages: []string{"English", "Spanish"},
		},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Equal(t, "Alice", userResp.User.Name)
	assert.Equal(t, bio, userResp.User.Bio)
	assert.Equal(t, location, userResp.User.Location)
	assert.Len(t, userResp.User.Languages, 2)

	// Empty name rejected
	empty := "   "
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/users/me",
		models.UpdateProfileRequest{Name: &empty},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTeachingSkills(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, token := testCtx.CreateTestUser(t, "Bob", "bob@example.com")

	// Add a skill
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users/me/skills/teaching",
		models.AddTeachingSkillRequest{Name: "Guitar"},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var userResp models.UserResponse
	err := json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Len(t, userResp.User.SkillsTeaching, 1)
	assert.Equal(t, "Guitar", userResp.User.SkillsTeaching[0].Name)
	assert.Equal(t, 0, userResp.User.SkillsTeaching[0].Sessions)

	// Duplicate rejected, case-insensitive
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users/me/skills/teaching",
		models.AddTeachingSkillRequest{Name: "guitar"},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Remove
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/users/me/skills/teaching/Guitar",
		nil,
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Empty(t, userResp.User.SkillsTeaching)
}

func TestLearningSkillsAndCertifications(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, token := testCtx.CreateTestUser(t, "Cara", "cara@example.com")

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users/me/skills/learning",
		models.AddLearningSkillRequest{Name: "Japanese"},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var userResp models.UserResponse
	err := json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Japanese"}, userResp.User.SkillsLearning)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/users/me/certifications",
		models.AddCertificationRequest{Name: "JLPT N2", Issuer: "JEES", Year: "2024"},
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Len(t, userResp.User.Certifications, 1)
	certID := userResp.User.Certifications[0].ID
	assert.NotEmpty(t, certID)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/users/me/certifications/"+certID,
		nil,
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &userResp)
	assert.NoError(t, err)
	assert.Empty(t, userResp.User.Certifications)
}

func TestListUsers(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, token := testCtx.CreateTestUser(t, "Dan", "dan@example.com")
	testCtx.CreateTestUser(t, "Eve", "eve@example.com")

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/users",
		nil,
		testutils.AuthHeaders(token),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	var usersResp models.UsersResponse
	err := json.Unmarshal(w.Body.Bytes(), &usersResp)
	assert.NoError(t, err)
	assert.Equal(t, 2, usersResp.Count)
}
