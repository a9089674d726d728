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

func TestCreateSociety(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.createUser(t, "Alice", "alice@example.com")

	t.Run("creator becomes an active admin", func(t *testing.T) {
		rec := s.request(t, http.MethodPost, "/api/societies", token, gin.H{
			"name":        "Trip Crew",
			"description": "Weekend trips",
		})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		society := decode(t, rec)["society"].(map[string]interface{})
		assert.Equal(t, "Trip Crew", society["name"])
		assert.Equal(t, float64(alice.ID), society["created_by"])

		members := society["members"].([]interface{})
		require.Len(t, members, 1)
		member := members[0].(map[string]interface{})
		assert.Equal(t, "ADMIN", member["role"])
		assert.Equal(t, "ACTIVE", member["status"])
	})

	t.Run("blank name rejected", func(t *testing.T) {
		rec := s.request(t, http.MethodPost, "/api/societies", token, gin.H{"name": "   "})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Society name is required", decode(t, rec)["error"])
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec := s.request(t, http.MethodPost, "/api/societies", "", gin.H{"name": "Nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestListSocieties(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	bob, bobToken := s.createUser(t, "Bob", "bob@example.com")

	first := s.createSociety(t, aliceToken, "Trip Crew")
	s.createSociety(t, aliceToken, "Dinner Club")
	s.addMember(t, first, bob.ID, models.RoleMember)

	t.Run("only societies with an active membership", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, "/api/societies", bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		societies := decode(t, rec)["societies"].([]interface{})
		require.Len(t, societies, 1)
		assert.Equal(t, "Trip Crew", societies[0].(map[string]interface{})["name"])
	})

	t.Run("removed member no longer sees the society", func(t *testing.T) {
		require.NoError(t, s.db.Model(&models.SocietyMember{}).
			Where("society_id = ? AND user_id = ?", first, bob.ID).
			Update("status", models.MemberInactive).Error)

		rec := s.request(t, http.MethodGet, "/api/societies", bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode(t, rec)["societies"])
	})
}

func TestGetSociety(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	_, bobToken := s.createUser(t, "Bob", "bob@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")

	t.Run("member sees the society", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, fmt.Sprintf("/api/societies/%d", societyID), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Trip Crew", decode(t, rec)["society"].(map[string]interface{})["name"])
	})

	t.Run("non-member gets 404 not 403", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, fmt.Sprintf("/api/societies/%d", societyID), bobToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Society not found", decode(t, rec)["error"])
	})

	t.Run("unknown id gets 404", func(t *testing.T) {
		rec := s.request(t, http.MethodGet, "/api/societies/9999", aliceToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateSociety(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	bob, bobToken := s.createUser(t, "Bob", "bob@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")
	s.addMember(t, societyID, bob.ID, models.RoleMember)

	path := fmt.Sprintf("/api/societies/%d", societyID)

	t.Run("admin can rename", func(t *testing.T) {
		rec := s.request(t, http.MethodPut, path, aliceToken, gin.H{"name": "Road Trip Crew"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Road Trip Crew", decode(t, rec)["society"].(map[string]interface{})["name"])
	})

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		rec := s.request(t, http.MethodPut, path, aliceToken, gin.H{"description": "On the road"})
		require.Equal(t, http.StatusOK, rec.Code)

		society := decode(t, rec)["society"].(map[string]interface{})
		assert.Equal(t, "Road Trip Crew", society["name"])
		assert.Equal(t, "On the road", society["description"])
	})

	t.Run("plain member cannot update", func(t *testing.T) {
		rec := s.request(t, http.MethodPut, path, bobToken, gin.H{"name": "Bob's Crew"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Admin access required", decode(t, rec)["error"])
	})
}

func TestDeleteSociety(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.createUser(t, "Alice", "alice@example.com")
	bob, bobToken := s.createUser(t, "Bob", "bob@example.com")

	societyID := s.createSociety(t, aliceToken, "Trip Crew")
	s.addMember(t, societyID, bob.ID, models.RoleMember)
	outingID := s.createOuting(t, aliceToken, societyID, "Beach Day")

	path := fmt.Sprintf("/api/societies/%d", societyID)

	t.Run("plain member cannot delete", func(t *testing.T) {
		rec := s.request(t, http.MethodDelete, path, bobToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin delete cascades to outings and memberships", func(t *testing.T) {
		rec := s.request(t, http.MethodDelete, path, aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var count int64
		s.db.Model(&models.Outing{}).Where("id = ?", outingID).Count(&count)
		assert.Zero(t, count, "outing should be gone")

		s.db.Model(&models.SocietyMember{}).Where("society_id = ?", societyID).Count(&count)
		assert.Zero(t, count, "memberships should be gone")

		getRec := s.request(t, http.MethodGet, path, aliceToken, nil)
		assert.Equal(t, http.StatusNotFound, getRec.Code)
	})
}
