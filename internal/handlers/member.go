package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/authz"
	"github.com/outly-dev/outly/internal/models"
	"github.com/outly-dev/outly/internal/utils"
	"gorm.io/gorm"
)

type AddMemberRequest struct {
	Email string            `json:"email" binding:"required"`
	Role  models.MemberRole `json:"role"`
}

type UpdateMemberRequest struct {
	Role models.MemberRole `json:"role" binding:"required"`
}

var errAlreadyMember = errors.New("user is already a member")

type MemberHandler struct {
	db *gorm.DB
}

func NewMemberHandler(conn *gorm.DB) *MemberHandler {
	return &MemberHandler{db: conn}
}

func (h *MemberHandler) List(ctx *gin.Context) {
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

	var members []models.SocietyMember

	// ADMIN sorts before MEMBER, so admins come first.
	err = h.db.Where("society_id = ? AND status = ?", societyID, models.MemberActive).
		Preload("User").
		Order("role ASC, created_at ASC").
		Find(&members).Error

	if err != nil {
		slog.Error("failed to list members", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, toMemberResponse(member))
	}

	ctx.JSON(http.StatusOK, gin.H{"members": response})
}

func (h *MemberHandler) Add(ctx *gin.Context) {
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

	var req AddMemberRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if email == "" || !strings.Contains(email, "@") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Valid email is required"})
		return
	}

	role := req.Role

	if role == "" {
		role = models.RoleMember
	}

	if !role.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var user models.User

	if err := h.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			slog.Error("failed to look up user", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var member models.SocietyMember
	status := http.StatusCreated

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var existing models.SocietyMember

		err := tx.Where("society_id = ? AND user_id = ?", societyID, user.ID).
			First(&existing).Error

		if err == nil {
			if existing.Status == models.MemberActive {
				return errAlreadyMember
			}

			// Reactivate the soft-deleted membership with the requested role.
			existing.Status = models.MemberActive
			existing.Role = role

			if err := tx.Save(&existing).Error; err != nil {
				return err
			}

			member = existing
			status = http.StatusOK
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		member = models.SocietyMember{
			SocietyID: societyID,
			UserID:    user.ID,
			Role:      role,
			Status:    models.MemberActive,
		}

		return tx.Create(&member).Error
	})

	if err != nil {
		if errors.Is(err, errAlreadyMember) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already a member"})
			return
		}
		slog.Error("failed to add member", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	member.User = user
	ctx.JSON(status, gin.H{"member": toMemberResponse(member)})
}

func (h *MemberHandler) UpdateRole(ctx *gin.Context) {
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

	targetID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := authz.ActiveAdmin(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	var req UpdateMemberRequest

	if err := ctx.BindJSON(&req); err != nil || !req.Role.Valid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var member models.SocietyMember

	err = h.db.Transaction(func(tx *gorm.DB) error {
		// Demoting yourself must not orphan the society.
		if req.Role != models.RoleAdmin {
			if err := authz.CheckLastAdmin(tx, societyID, userID, targetID); err != nil {
				return err
			}
		}

		err := tx.Where("society_id = ? AND user_id = ?", societyID, targetID).
			First(&member).Error

		if err != nil {
			return err
		}

		member.Role = req.Role
		return tx.Save(&member).Error
	})

	if err != nil {
		switch {
		case errors.Is(err, authz.ErrLastAdmin):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot demote the only admin"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		default:
			slog.Error("failed to update member role", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
		}
		return
	}

	if err := h.db.Preload("User").First(&member, member.ID).Error; err != nil {
		slog.Error("failed to reload member", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"member": toMemberResponse(member)})
}

func (h *MemberHandler) Remove(ctx *gin.Context) {
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

	targetID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := authz.ActiveAdmin(h.db, societyID, userID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := authz.CheckLastAdmin(tx, societyID, userID, targetID); err != nil {
			return err
		}

		var member models.SocietyMember

		err := tx.Where("society_id = ? AND user_id = ?", societyID, targetID).
			First(&member).Error

		if err != nil {
			return err
		}

		// Soft delete: the membership row stays for reactivation.
		member.Status = models.MemberInactive
		return tx.Save(&member).Error
	})

	if err != nil {
		switch {
		case errors.Is(err, authz.ErrLastAdmin):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove the only admin"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		default:
			slog.Error("failed to remove member", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
