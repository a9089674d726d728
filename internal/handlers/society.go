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

type CreateSocietyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateSocietyRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type MemberResponse struct {
	ID       uint                `json:"id"`
	Role     models.MemberRole   `json:"role"`
	Status   models.MemberStatus `json:"status"`
	JoinedAt time.Time           `json:"joined_at"`
	User     types.UserResponse  `json:"user"`
}

type SocietyResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	CreatedBy   uint               `json:"created_by"`
	Creator     types.UserResponse `json:"creator"`
	Members     []MemberResponse   `json:"members"`
	MemberCount int                `json:"member_count"`
	OutingCount int64              `json:"outing_count"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type SocietyHandler struct {
	db *gorm.DB
}

func NewSocietyHandler(conn *gorm.DB) *SocietyHandler {
	return &SocietyHandler{db: conn}
}

func toUserResponse(user models.User) types.UserResponse {
	return types.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Image: user.Image,
	}
}

func toMemberResponse(member models.SocietyMember) MemberResponse {
	return MemberResponse{
		ID:       member.ID,
		Role:     member.Role,
		Status:   member.Status,
		JoinedAt: member.CreatedAt,
		User:     toUserResponse(member.User),
	}
}

func (h *SocietyHandler) toResponse(society models.Society) SocietyResponse {
	members := make([]MemberResponse, 0, len(society.Members))
	for _, member := range society.Members {
		members = append(members, toMemberResponse(member))
	}

	var outingCount int64
	h.db.Model(&models.Outing{}).Where("society_id = ?", society.ID).Count(&outingCount)

	return SocietyResponse{
		ID:          society.ID,
		Name:        society.Name,
		Description: society.Description,
		CreatedBy:   society.CreatedBy,
		Creator:     toUserResponse(society.Creator),
		Members:     members,
		MemberCount: len(society.Members),
		OutingCount: outingCount,
		CreatedAt:   society.CreatedAt,
		UpdatedAt:   society.UpdatedAt,
	}
}

func (h *SocietyHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var societies []models.Society

	err = h.db.
		Joins("JOIN society_members ON society_members.society_id = societies.id AND society_members.deleted_at IS NULL").
		Where("society_members.user_id = ? AND society_members.status = ?", userID, models.MemberActive).
		Preload("Members", "status = ?", models.MemberActive).
		Preload("Members.User").
		Preload("Creator").
		Order("societies.updated_at DESC").
		Find(&societies).Error

	if err != nil {
		slog.Error("failed to list societies", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve societies"})
		return
	}

	response := make([]SocietyResponse, 0, len(societies))
	for _, society := range societies {
		response = append(response, h.toResponse(society))
	}

	ctx.JSON(http.StatusOK, gin.H{"societies": response})
}

func (h *SocietyHandler) Create(ctx *gin.Context) {
	var req CreateSocietyRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Society name is required"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if req.Name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Society name is required"})
		return
	}

	if len(req.Name) > 100 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Society name must be less than 100 characters"})
		return
	}

	if len(req.Description) > 500 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Description must be less than 500 characters"})
		return
	}

	society := models.Society{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
	}

	// The creator must come out of the transaction as an active admin.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&society).Error; err != nil {
			return err
		}

		return tx.Create(&models.SocietyMember{
			SocietyID: society.ID,
			UserID:    userID,
			Role:      models.RoleAdmin,
			Status:    models.MemberActive,
		}).Error
	})

	if err != nil {
		slog.Error("failed to create society", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create society"})
		return
	}

	if err := h.db.Preload("Members", "status = ?", models.MemberActive).
		Preload("Members.User").Preload("Creator").
		First(&society, society.ID).Error; err != nil {
		slog.Error("failed to reload society", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create society"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"society": h.toResponse(society)})
}

func (h *SocietyHandler) Get(ctx *gin.Context) {
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

	// Non-members get a 404, not a 403: society existence is scoped.
	if _, err := authz.ActiveMember(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Society not found"})
		return
	}

	var society models.Society

	err = h.db.Preload("Members", "status = ?", models.MemberActive).
		Preload("Members.User").Preload("Creator").
		First(&society, societyID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Society not found"})
		} else {
			slog.Error("failed to fetch society", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve society"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"society": h.toResponse(society)})
}

func (h *SocietyHandler) Update(ctx *gin.Context) {
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

	if _, err := authz.ActiveAdmin(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	var req UpdateSocietyRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)

		if name == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Society name is required"})
			return
		}
		if len(name) > 100 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Society name must be less than 100 characters"})
			return
		}

		updates["name"] = name
	}

	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)

		if len(description) > 500 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Description must be less than 500 characters"})
			return
		}

		updates["description"] = description
	}

	var society models.Society

	if err := h.db.First(&society, societyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Society not found"})
		} else {
			slog.Error("failed to fetch society", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve society"})
		}
		return
	}

	if len(updates) > 0 {
		if err := h.db.Model(&society).Updates(updates).Error; err != nil {
			slog.Error("failed to update society", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update society"})
			return
		}
	}

	if err := h.db.Preload("Members", "status = ?", models.MemberActive).
		Preload("Members.User").Preload("Creator").
		First(&society, societyID).Error; err != nil {
		slog.Error("failed to reload society", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update society"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"society": h.toResponse(society)})
}

func (h *SocietyHandler) Delete(ctx *gin.Context) {
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

	if _, err := authz.ActiveAdmin(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var outingIDs []uint

		if err := tx.Model(&models.Outing{}).Where("society_id = ?", societyID).
			Pluck("id", &outingIDs).Error; err != nil {
			return err
		}

		if len(outingIDs) > 0 {
			var instanceIDs []uint

			if err := tx.Model(&models.Instance{}).Where("outing_id IN ?", outingIDs).
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

			if err := tx.Where("outing_id IN ?", outingIDs).Delete(&models.OutingParticipant{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", outingIDs).Delete(&models.Outing{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("society_id = ?", societyID).Delete(&models.SocietyMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Society{}, societyID).Error
	})

	if err != nil {
		slog.Error("failed to delete society", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete society"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Society deleted successfully"})
}
