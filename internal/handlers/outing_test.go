package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outingPath(societyID uint) string {
	return fmt.Sprintf("/api/societies/%d/outings", societyID)
}

func TestCreateOuting(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	_, outsiderToken := s.createUser(t, "Mallory", "mallory@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")
	date := time.Now().Add(72 * time.Hour).Format(time.RFC3339)

	t.Run("creator joins as confirmed participant", func(t *testing.T) {
		budget := 250.0
		rec := s.request(t, http.MethodPost, outingPath(societyID), aliceToken, gin.H{
			"title":    "Beach Day",
			"date":     date,
			"location": "Brighton",
			"budget":   budget,
		})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		outing := decode(t, rec)["outing"].(map[string]interface{})
		assert.Equal(t, "Beach Day", outing["title"])
		assert.Equal(t, "PLANNED", outing["status"])
		assert.Equal(t, 250.0, outing["budget"])

		participants := outing["participants"].([]interface{})
		require.Len(t, participants, 1)
		participant := participants[0].(map[string]interface{})
		assert.Equal(t, "CONFIRMED", participant["status"])
		assert.Equal(t, float64(alice.ID), participant["user"].(map[string]interface{})["id"])
	})

	t.Run("invalid date rejected", func(t *testing.T) {
		rec := s.request(t, http.MethodPost, outingPath(societyID), aliceToken, gin.H{
			"title": "Bad Date",
			"date":  "next tuesday",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Valid date is required", decode(t, rec)["error"])
	})

	t.Run("negative budget rejected", func(t *testing.T) {
		rec := s.request(t, http.MethodPost, outingPath(societyID), aliceToken, gin.H{
			"title":  "Negative",
			"date":   date,
			"budget": -5,
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-member cannot create", func(t *testing.T) {
		rec := s.request(t, http.MethodPost, outingPath(societyID), outsiderToken, gin.H{
			"title": "Crash the Party",
			"date":  date,
		})

		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Access denied", decode(t, rec)["error"])
	})
}

func TestUpdateOuting(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	bob, bobToken := s.createUser(t, "Bob", "bob@example.com")
	carol, carolToken := s.createUser(t, "Carol", "carol@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")
	s.addMember(t, societyID, bob.ID, models.RoleMember)
	s.addMember(t, societyID, carol.ID, models.RoleAdmin)

	// Bob creates the outing, so Bob and admins can manage it.
	outingID := s.createOuting(t, bobToken, societyID, "Beach Day")
	path := fmt.Sprintf("%s/%d", outingPath(societyID), outingID)

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		rec := s.request(t, http.MethodPut, path, bobToken, gin.H{"location": "Brighton"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		outing := decode(t, rec)["outing"].(map[string]interface{})
		assert.Equal(t, "Beach Day", outing["title"])
		assert.Equal(t, "Brighton", outing["location"])
		assert.Equal(t, "PLANNED", outing["status"])
	})

	t.Run("society admin can update someone else's outing", func(t *testing.T) {
		rec := s.request(t, http.MethodPut, path, carolToken, gin.H{"status": "COMPLETED"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "COMPLETED", decode(t, rec)["outing"].(map[string]interface{})["status"])
	})

	t.Run("plain member who is not the creator cannot update", func(t *testing.T) {
		dave, daveToken := s.createUser(t, "Dave", "dave@example.com")
		s.addMember(t, societyID, dave.ID, models.RoleMember)

		rec := s.request(t, http.MethodPut, path, daveToken, gin.H{"title": "Mine Now"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Access denied", decode(t, rec)["error"])
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		rec := s.request(t, http.MethodPut, path, bobToken, gin.H{"status": "POSTPONED"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("outing in another society is not found", func(t *testing.T) {
		otherSociety := s.createSociety(t, aliceToken, "Dinner Club")
		wrongPath := fmt.Sprintf("%s/%d", outingPath(otherSociety), outingID)

		rec := s.request(t, http.MethodPut, wrongPath, aliceToken, gin.H{"title": "Cross"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteOuting(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	bob, bobToken := s.createUser(t, "Bob", "bob@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")
	s.addMember(t, societyID, bob.ID, models.RoleMember)

	outingID := s.createOuting(t, aliceToken, societyID, "Beach Day")
	path := fmt.Sprintf("%s/%d", outingPath(societyID), outingID)

	instancePath := fmt.Sprintf("%s/instances", path)
	rec := s.request(t, http.MethodPost, instancePath, aliceToken, gin.H{
		"title":        "Lunch",
		"total_amount": 30.0,
		"participants": []gin.H{{"user_id": float64(bob.ID), "amount": 15.0}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("plain member cannot delete someone else's outing", func(t *testing.T) {
		delRec := s.request(t, http.MethodDelete, path, bobToken, nil)
		assert.Equal(t, http.StatusForbidden, delRec.Code)
	})

	t.Run("delete cascades to participants, instances and settlements", func(t *testing.T) {
		delRec := s.request(t, http.MethodDelete, path, aliceToken, nil)
		require.Equal(t, http.StatusOK, delRec.Code, delRec.Body.String())

		var count int64
		s.db.Model(&models.OutingParticipant{}).Where("outing_id = ?", outingID).Count(&count)
		assert.Zero(t, count, "participants should be gone")

		s.db.Model(&models.Instance{}).Where("outing_id = ?", outingID).Count(&count)
		assert.Zero(t, count, "instances should be gone")

		s.db.Model(&models.Settlement{}).
			Joins("JOIN instances ON instances.id = settlements.instance_id").
			Where("instances.outing_id = ?", outingID).
			Count(&count)
		assert.Zero(t, count, "settlements should be gone")
	})
}

func TestListOutings(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	_, outsiderToken := s.createUser(t, "Mallory", "mallory@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")
	s.createOuting(t, aliceToken, societyID, "First")
	s.createOuting(t, aliceToken, societyID, "Second")

	t.Run("member lists outings", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, outingPath(societyID), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode(t, rec)["outings"].([]interface{}), 2)
	})

	t.Run("non-member denied", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, outingPath(societyID), outsiderToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
