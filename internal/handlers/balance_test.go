package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalances(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	bob, _ := s.createUser(t, "Bob", "bob@example.com")
	_, outsiderToken := s.createUser(t, "Mallory", "mallory@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")
	s.addMember(t, societyID, bob.ID, models.RoleMember)
	outingID := s.createOuting(t, aliceToken, societyID, "Beach Day")

	path := fmt.Sprintf("/api/societies/%d/balances", societyID)

	t.Run("empty ledger", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, path, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Empty(t, body["balances"])
		assert.Empty(t, body["debts"])
	})

	instPath := fmt.Sprintf("/api/societies/%d/outings/%d/instances", societyID, outingID)
	rec := s.request(t, http.MethodPost, instPath, aliceToken, gin.H{
		"title":        "Dinner",
		"total_amount": 30.0,
		"participants": []gin.H{{"user_id": float64(bob.ID), "amount": 12.5}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("pending settlements produce balances and a repayment", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, path, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		balances := body["balances"].([]interface{})
		require.Len(t, balances, 2)

		byUser := map[float64]map[string]interface{}{}
		for _, raw := range balances {
			bal := raw.(map[string]interface{})
			byUser[bal["user"].(map[string]interface{})["id"].(float64)] = bal
		}

		creator := byUser[float64(alice.ID)]
		assert.InDelta(t, 30.0, creator["total_paid"], 0.001)
		assert.InDelta(t, 12.5, creator["net_balance"], 0.001)

		debtor := byUser[float64(bob.ID)]
		assert.InDelta(t, 12.5, debtor["total_owed"], 0.001)
		assert.InDelta(t, -12.5, debtor["net_balance"], 0.001)

		debts := body["debts"].([]interface{})
		require.Len(t, debts, 1)
		debt := debts[0].(map[string]interface{})
		assert.Equal(t, float64(bob.ID), debt["from_user"].(map[string]interface{})["id"])
		assert.Equal(t, float64(alice.ID), debt["to_user"].(map[string]interface{})["id"])
		assert.InDelta(t, 12.5, debt["amount"], 0.001)
	})

	t.Run("completed settlements drop out", func(t *testing.T) {
		require.NoError(t, s.db.Model(&models.Settlement{}).
			Where("from_user_id = ?", bob.ID).
			Update("status", models.SettlementCompleted).Error)

		rec := s.request(t, http.MethodGet, path, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Empty(t, body["debts"])

		for _, raw := range body["balances"].([]interface{}) {
			bal := raw.(map[string]interface{})
			assert.InDelta(t, 0.0, bal["net_balance"], 0.001)
		}
	})

	t.Run("non-member denied", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, path, outsiderToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
