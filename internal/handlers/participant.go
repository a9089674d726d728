package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/authz"
	"github.com/outly-dev/outly/internal/models"
	"github.com/outly-dev/outly/internal/utils"
	"gorm.io/gorm"
)

type UpdateParticipantRequest struct {
	Status models.ParticipantStatus `json:"status" binding:"required"`
}

var errAlreadyParticipating = errors.New("already participating in this outing")

type ParticipantHandler struct {
	db *gorm.DB
}

func NewParticipantHandler(conn *gorm.DB) *ParticipantHandler {
	return &ParticipantHandler{db: conn}
}

func (h *ParticipantHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	societyID, err := utils.GetSocietyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outingID, err := utils.GetOutingID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := authz.ActiveMember(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := findOuting(h.db, societyID, outingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Outing not found"})
		} else {
			slog.Error("failed to fetch outing", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outing"})
		}
		return
	}

	var participants []models.OutingParticipant

	// CONFIRMED sorts first in the closed status set, then by join time.
	err = h.db.Where("outing_id = ?", outingID).
		Preload("User").
		Order("status ASC, created_at ASC").
		Find(&participants).Error

	if err != nil {
		slog.Error("failed to list participants", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve participants"})
		return
	}

	response := make([]ParticipantResponse, 0, len(participants))
	for _, participant := range participants {
		response = append(response, toParticipantResponse(participant))
	}

	ctx.JSON(http.StatusOK, gin.H{"participants": response})
}

func (h *ParticipantHandler) Join(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	societyID, err := utils.GetSocietyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outingID, err := utils.GetOutingID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := authz.ActiveMember(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	if _, err := findOuting(h.db, societyID, outingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Outing not found"})
		} else {
			slog.Error("failed to fetch outing", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outing"})
		}
		return
	}

	var participant models.OutingParticipant
	status := http.StatusCreated

	// Idempotent upsert on the (outing, user) row: re-joining after a decline
	// flips the existing row back to CONFIRMED.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.OutingParticipant

		err := tx.Where("outing_id = ? AND user_id = ?", outingID, userID).
			First(&existing).Error

		if err == nil {
			if existing.Status == models.ParticipantConfirmed {
				return errAlreadyParticipating
			}

			existing.Status = models.ParticipantConfirmed

			if err := tx.Save(&existing).Error; err != nil {
				return err
			}

			participant = existing
			status = http.StatusOK
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		participant = models.OutingParticipant{
			OutingID: outingID,
			UserID:   userID,
			Status:   models.ParticipantConfirmed,
		}

		return tx.Create(&participant).Error
	})

	if err != nil {
		if errors.Is(err, errAlreadyParticipating) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Already participating in this outing"})
			return
		}
		slog.Error("failed to join outing", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join outing"})
		return
	}

	if err := h.db.Preload("User").First(&participant, participant.ID).Error; err != nil {
		slog.Error("failed to reload participant", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join outing"})
		return
	}

	ctx.JSON(status, gin.H{"participant": toParticipantResponse(participant)})
}

func (h *ParticipantHandler) UpdateStatus(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	societyID, err := utils.GetSocietyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outingID, err := utils.GetOutingID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := authz.ActiveMember(h.db, societyID, userID)

	if err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	outing, err := findOuting(h.db, societyID, outingID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Outing not found"})
		} else {
			slog.Error("failed to fetch outing", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outing"})
		}
		return
	}

	if !authz.CanActOnParticipant(member, outing, userID, targetID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req UpdateParticipantRequest

	if err := ctx.BindJSON(&req); err != nil || !req.Status.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var participant models.OutingParticipant

	err = h.db.Where("outing_id = ? AND user_id = ?", outingID, targetID).
		First(&participant).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
		} else {
			slog.Error("failed to fetch participant", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve participant"})
		}
		return
	}

	participant.Status = req.Status

	if err := h.db.Save(&participant).Error; err != nil {
		slog.Error("failed to update participant", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update participant"})
		return
	}

	if err := h.db.Preload("User").First(&participant, participant.ID).Error; err != nil {
		slog.Error("failed to reload participant", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update participant"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"participant": toParticipantResponse(participant)})
}

func (h *ParticipantHandler) Remove(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	societyID, err := utils.GetSocietyID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outingID, err := utils.GetOutingID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := authz.ActiveMember(h.db, societyID, userID)

	if err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	outing, err := findOuting(h.db, societyID, outingID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Outing not found"})
		} else {
			slog.Error("failed to fetch outing", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outing"})
		}
		return
	}

	if !authz.CanActOnParticipant(member, outing, userID, targetID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	// Hard delete so the user can join again later; a soft-deleted row would
	// still occupy the unique (outing, user) index.
	result := h.db.Unscoped().Where("outing_id = ? AND user_id = ?", outingID, targetID).
		Delete(&models.OutingParticipant{})

	if result.Error != nil {
		slog.Error("failed to remove participant", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove participant"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Participant removed successfully"})
}
