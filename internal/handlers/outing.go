package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/authz"
	"github.com/outly-dev/outly/internal/models"
	"github.com/outly-dev/outly/internal/types"
	"github.com/outly-dev/outly/internal/utils"
	"gorm.io/gorm"
)

type CreateOutingRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Date        string   `json:"date" binding:"required"`
	Location    string   `json:"location"`
	Budget      *float64 `json:"budget"`
}

type UpdateOutingRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Date        *string              `json:"date"`
	Location    *string              `json:"location"`
	Budget      *float64             `json:"budget"`
	Status      *models.OutingStatus `json:"status"`
}

type ParticipantResponse struct {
	ID       uint                     `json:"id"`
	Status   models.ParticipantStatus `json:"status"`
	JoinedAt time.Time                `json:"joined_at"`
	User     types.UserResponse       `json:"user"`
}

type OutingResponse struct {
	ID               uint                  `json:"id"`
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Date             time.Time             `json:"date"`
	Location         string                `json:"location"`
	Budget           *float64              `json:"budget"`
	Status           models.OutingStatus   `json:"status"`
	SocietyID        uint                  `json:"society_id"`
	CreatedBy        uint                  `json:"created_by"`
	Creator          types.UserResponse    `json:"creator"`
	Participants     []ParticipantResponse `json:"participants"`
	ParticipantCount int                   `json:"participant_count"`
	InstanceCount    int64                 `json:"instance_count"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

type OutingHandler struct {
	db *gorm.DB
}

func NewOutingHandler(conn *gorm.DB) *OutingHandler {
	return &OutingHandler{db: conn}
}

func toParticipantResponse(participant models.OutingParticipant) ParticipantResponse {
	return ParticipantResponse{
		ID:       participant.ID,
		Status:   participant.Status,
		JoinedAt: participant.CreatedAt,
		User:     toUserResponse(participant.User),
	}
}

func (h *OutingHandler) toResponse(outing models.Outing) OutingResponse {
	participants := make([]ParticipantResponse, 0, len(outing.Participants))
	for _, participant := range outing.Participants {
		participants = append(participants, toParticipantResponse(participant))
	}

	var instanceCount int64
	h.db.Model(&models.Instance{}).Where("outing_id = ?", outing.ID).Count(&instanceCount)

	return OutingResponse{
		ID:               outing.ID,
		Title:            outing.Title,
		Description:      outing.Description,
		Date:             outing.Date,
		Location:         outing.Location,
		Budget:           outing.Budget,
		Status:           outing.Status,
		SocietyID:        outing.SocietyID,
		CreatedBy:        outing.CreatedBy,
		Creator:          toUserResponse(outing.Creator),
		Participants:     participants,
		ParticipantCount: len(outing.Participants),
		InstanceCount:    instanceCount,
		CreatedAt:        outing.CreatedAt,
		UpdatedAt:        outing.UpdatedAt,
	}
}

// findOuting loads an outing scoped to its society; a mismatch is a NotFound.
func findOuting(conn *gorm.DB, societyID, outingID uint) (*models.Outing, error) {
	var outing models.Outing

	err := conn.Where("id = ? AND society_id = ?", outingID, societyID).
		First(&outing).Error

	if err != nil {
		return nil, err
	}

	return &outing, nil
}

func (h *OutingHandler) List(ctx *gin.Context) {
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

	if _, err := authz.ActiveMember(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var outings []models.Outing

	err = h.db.Where("society_id = ?", societyID).
		Preload("Participants.User").
		Preload("Creator").
		Order("date DESC").
		Find(&outings).Error

	if err != nil {
		slog.Error("failed to list outings", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outings"})
		return
	}

	response := make([]OutingResponse, 0, len(outings))
	for _, outing := range outings {
		response = append(response, h.toResponse(outing))
	}

	ctx.JSON(http.StatusOK, gin.H{"outings": response})
}

func (h *OutingHandler) Create(ctx *gin.Context) {
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

	if _, err := authz.ActiveMember(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req CreateOutingRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Outing title and date are required"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)

	if req.Title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Outing title is required"})
		return
	}

	if len(req.Title) > 200 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Outing title must be less than 200 characters"})
		return
	}

	if len(req.Description) > 1000 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Description must be less than 1000 characters"})
		return
	}

	date, err := time.Parse(time.RFC3339, req.Date)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Valid date is required"})
		return
	}

	if req.Budget != nil && *req.Budget < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Budget must be a positive number"})
		return
	}

	outing := models.Outing{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
		Budget:      req.Budget,
		Status:      models.OutingPlanned,
		SocietyID:   societyID,
		CreatedBy:   userID,
	}

	// Creator joins their own outing as CONFIRMED in the same transaction.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&outing).Error; err != nil {
			return err
		}

		return tx.Create(&models.OutingParticipant{
			OutingID: outing.ID,
			UserID:   userID,
			Status:   models.ParticipantConfirmed,
		}).Error
	})

	if err != nil {
		slog.Error("failed to create outing", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create outing"})
		return
	}

	if err := h.db.Preload("Participants.User").Preload("Creator").
		First(&outing, outing.ID).Error; err != nil {
		slog.Error("failed to reload outing", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create outing"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"outing": h.toResponse(outing)})
}

func (h *OutingHandler) Get(ctx *gin.Context) {
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

	var outing models.Outing

	err = h.db.Where("id = ? AND society_id = ?", outingID, societyID).
		Preload("Participants.User").
		Preload("Creator").
		First(&outing).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Outing not found"})
		} else {
			slog.Error("failed to fetch outing", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve outing"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"outing": h.toResponse(outing)})
}

func (h *OutingHandler) Update(ctx *gin.Context) {
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

	allowed, err := authz.CanManageOuting(h.db, outing, userID)

	if err != nil {
		slog.Error("failed to check outing access", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req UpdateOutingRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Partial update semantics: only supplied keys are written.
	updates := make(map[string]interface{})

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)

		if title == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Outing title is required"})
			return
		}
		if len(title) > 200 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Outing title must be less than 200 characters"})
			return
		}

		updates["title"] = title
	}

	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)

		if len(description) > 1000 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Description must be less than 1000 characters"})
			return
		}

		updates["description"] = description
	}

	if req.Date != nil {
		date, err := time.Parse(time.RFC3339, *req.Date)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Valid date is required"})
			return
		}

		updates["date"] = date
	}

	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}

	if req.Budget != nil {
		if *req.Budget < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Budget must be a positive number"})
			return
		}

		updates["budget"] = *req.Budget
	}

	if req.Status != nil {
		if !req.Status.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}

		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := h.db.Model(outing).Updates(updates).Error; err != nil {
			slog.Error("failed to update outing", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update outing"})
			return
		}
	}

	var updated models.Outing

	if err := h.db.Preload("Participants.User").Preload("Creator").
		First(&updated, outingID).Error; err != nil {
		slog.Error("failed to reload outing", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update outing"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"outing": h.toResponse(updated)})
}

func (h *OutingHandler) Delete(ctx *gin.Context) {
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

	allowed, err := authz.CanManageOuting(h.db, outing, userID)

	if err != nil {
		slog.Error("failed to check outing access", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var instanceIDs []uint

		if err := tx.Model(&models.Instance{}).Where("outing_id = ?", outingID).
			Pluck("id", &instanceIDs).Error; err != nil {
			return err
		}

		if len(instanceIDs) > 0 {
			if err := tx.Where("instance_id IN ?", instanceIDs).Delete(&models.Settlement{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", instanceIDs).Delete(&models.Instance{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("outing_id = ?", outingID).Delete(&models.OutingParticipant{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Outing{}, outingID).Error
	})

	if err != nil {
		slog.Error("failed to delete outing", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete outing"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Outing deleted successfully"})
}
