package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/skillbridge/skillbridge-server/internal/api/testutils"
	"github.com/skillbridge/skillbridge-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestConcurrentSpendSingleWinner(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, learnerToken := testCtx.CreateTestUser(t, "Racer", "racer@example.com")
	partnerID, _ := testCtx.CreateTestUser(t, "Counterpart", "counterpart@example.com")

	// Leave exactly one session's worth of credits in the wallet
	sessions := testCtx.Credits.StartingBalance/testCtx.Credits.SessionCost - 1
	for i := 0; i < sessions; i++ {
		w := testutils.PerformRequest(
			testCtx.Router,
			http.MethodPost,
			"/api/meetings",
			models.ScheduleMeetingRequest{
				OtherUserID: partnerID,
				Title:       fmt.Sprintf("Warmup %d", i),
				StartsAt:    "2026-10-01T10:00:00Z",
				SessionType: models.SessionLearning,
			},
			testutils.AuthHeaders(learnerToken),
		)
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	// Race several schedule calls for the last affordable session
	const attempts = 8
	codes := make(chan int, attempts)
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			w := testutils.PerformRequest(
				testCtx.Router,
				http.MethodPost,
				"/api/meetings",
				models.ScheduleMeetingRequest{
					OtherUserID: partnerID,
					Title:       fmt.Sprintf("Race %d", i),
					StartsAt:    "2026-10-02T10:00:00Z",
					SessionType: models.SessionLearning,
				},
				testutils.AuthHeaders(learnerToken),
			)
			codes <- w.Code
		}(i)
	}

	wg.Wait()
	close(codes)

	var created, rejected int
	for code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		default:
			t.Fatalf("unexpected status code %d", code)
		}
	}

	assert.Equal(t, 1, created, "exactly one concurrent schedule should win")
	assert.Equal(t, attempts-1, rejected)

	// The balance never went negative and the ledger still reconciles
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/credits/wallet", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var walletResp models.WalletResponse
	err := json.Unmarshal(w.Body.Bytes(), &walletResp)
	assert.NoError(t, err)
	assert.Equal(t, 0, walletResp.Balance)
	assert.Equal(t, walletResp.TotalEarned-walletResp.TotalSpent, walletResp.Balance)

	// Only the winning meeting was kept
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet,
		"/api/meetings", nil, testutils.AuthHeaders(learnerToken))
	assert.Equal(t, http.StatusOK, w.Code)

	var meetingsResp models.MeetingsResponse
	err = json.Unmarshal(w.Body.Bytes(), &meetingsResp)
	assert.NoError(t, err)
	assert.Len(t, meetingsResp.Meetings, sessions+1)
}
