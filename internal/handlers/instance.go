package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/authz"
	"github.com/outly-dev/outly/internal/models"
	"github.com/outly-dev/outly/internal/split"
	"github.com/outly-dev/outly/internal/types"
	"github.com/outly-dev/outly/internal/utils"
	"github.com/outly-dev/outly/internal/ws"
	"gorm.io/gorm"
)

type InstanceShareRequest struct {
	UserID uint    `json:"user_id" binding:"required"`
	Amount float64 `json:"amount"`
}

type CreateInstanceRequest struct {
	Title        string                 `json:"title" binding:"required"`
	Description  string                 `json:"description"`
	TotalAmount  float64                `json:"total_amount" binding:"required"`
	Participants []InstanceShareRequest `json:"participants" binding:"required"`
}

type SettlementResponse struct {
	ID       uint                    `json:"id"`
	FromUser types.UserResponse      `json:"from_user"`
	ToUser   types.UserResponse      `json:"to_user"`
	Amount   float64                 `json:"amount"`
	Status   models.SettlementStatus `json:"status"`
}

type InstanceResponse struct {
	ID              uint                 `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	TotalAmount     float64              `json:"total_amount"`
	OutingID        uint                 `json:"outing_id"`
	Creator         types.UserResponse   `json:"creator"`
	Settlements     []SettlementResponse `json:"settlements"`
	SettlementCount int                  `json:"settlement_count"`
	PendingCount    int                  `json:"pending_count"`
	CreatedAt       time.Time            `json:"created_at"`
}

func toSettlementResponse(settlement models.Settlement) SettlementResponse {
	return SettlementResponse{
		ID:       settlement.ID,
		FromUser: toUserResponse(settlement.FromUser),
		ToUser:   toUserResponse(settlement.ToUser),
		Amount:   settlement.Amount,
		Status:   settlement.Status,
	}
}

func toInstanceResponse(instance models.Instance) InstanceResponse {
	settlements := make([]SettlementResponse, 0, len(instance.Settlements))
	pending := 0

	for _, settlement := range instance.Settlements {
		settlements = append(settlements, toSettlementResponse(settlement))

		if settlement.Status == models.SettlementPending {
			pending++
		}
	}

	return InstanceResponse{
		ID:              instance.ID,
		Title:           instance.Title,
		Description:     instance.Description,
		TotalAmount:     instance.TotalAmount,
		OutingID:        instance.OutingID,
		Creator:         toUserResponse(instance.Creator),
		Settlements:     settlements,
		SettlementCount: len(instance.Settlements),
		PendingCount:    pending,
		CreatedAt:       instance.CreatedAt,
	}
}

type InstanceHandler struct {
	db  *gorm.DB
	hub *ws.Hub
}

func NewInstanceHandler(conn *gorm.DB, hub *ws.Hub) *InstanceHandler {
	return &InstanceHandler{db: conn, hub: hub}
}

func (h *InstanceHandler) List(ctx *gin.Context) {
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

	var instances []models.Instance

	err = h.db.Where("outing_id = ?", outingID).
		Preload("Creator").
		Preload("Settlements.FromUser").
		Preload("Settlements.ToUser").
		Order("created_at DESC").
		Find(&instances).Error

	if err != nil {
		slog.Error("failed to list instances", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve instances"})
		return
	}

	response := make([]InstanceResponse, 0, len(instances))
	for _, instance := range instances {
		response = append(response, toInstanceResponse(instance))
	}

	ctx.JSON(http.StatusOK, gin.H{"instances": response})
}

func (h *InstanceHandler) Create(ctx *gin.Context) {
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

	var req CreateInstanceRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)

	if req.Title == "" || len(req.Title) > 200 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title must be between 1 and 200 characters"})
		return
	}

	if len(req.Description) > 1000 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Description must not exceed 1000 characters"})
		return
	}

	shares := make([]split.Share, 0, len(req.Participants))
	for _, participant := range req.Participants {
		shares = append(shares, split.Share{UserID: participant.UserID, Amount: participant.Amount})
	}

	settlements, err := split.BuildSettlements(userID, req.TotalAmount, shares)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instance := models.Instance{
		Title:       req.Title,
		Description: req.Description,
		TotalAmount: req.TotalAmount,
		OutingID:    outingID,
		CreatedBy:   userID,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&instance).Error; err != nil {
			return err
		}

		for i := range settlements {
			settlements[i].InstanceID = instance.ID
		}

		return tx.Create(&settlements).Error
	})

	if err != nil {
		slog.Error("failed to create instance", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create instance"})
		return
	}

	err = h.db.Preload("Creator").
		Preload("Settlements.FromUser").
		Preload("Settlements.ToUser").
		First(&instance, instance.ID).Error

	if err != nil {
		slog.Error("failed to reload instance", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create instance"})
		return
	}

	h.hub.BroadcastRefresh(societyID, fmt.Sprintf("New expense added to %s", outing.Title))

	ctx.JSON(http.StatusCreated, gin.H{"instance": toInstanceResponse(instance)})
}
