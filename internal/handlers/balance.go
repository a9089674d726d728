package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/authz"
	"github.com/outly-dev/outly/internal/models"
	"github.com/outly-dev/outly/internal/split"
	"github.com/outly-dev/outly/internal/types"
	"github.com/outly-dev/outly/internal/utils"
	"gorm.io/gorm"
)

type BalanceResponse struct {
	User       types.UserResponse `json:"user"`
	TotalPaid  float64            `json:"total_paid"`
	TotalOwed  float64            `json:"total_owed"`
	NetBalance float64            `json:"net_balance"`
}

type DebtResponse struct {
	FromUser types.UserResponse `json:"from_user"`
	ToUser   types.UserResponse `json:"to_user"`
	Amount   float64            `json:"amount"`
}

type BalanceHandler struct {
	db *gorm.DB
}

func NewBalanceHandler(conn *gorm.DB) *BalanceHandler {
	return &BalanceHandler{db: conn}
}

// Get reconciles the society's open settlements into per-member balances and a
// simplified set of suggested repayments.
func (h *BalanceHandler) Get(ctx *gin.Context) {
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

	var instances []models.Instance

	err = h.db.Joins("JOIN outings ON outings.id = instances.outing_id AND outings.deleted_at IS NULL").
		Where("outings.society_id = ?", societyID).
		Find(&instances).Error

	if err != nil {
		slog.Error("failed to load instances for balances", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve balances"})
		return
	}

	var settlements []models.Settlement

	if len(instances) > 0 {
		instanceIDs := make([]uint, 0, len(instances))
		for _, instance := range instances {
			instanceIDs = append(instanceIDs, instance.ID)
		}

		if err := h.db.Where("instance_id IN ?", instanceIDs).Find(&settlements).Error; err != nil {
			slog.Error("failed to load settlements for balances", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve balances"})
			return
		}
	}

	balances := split.ComputeBalances(instances, settlements)
	debts := split.SimplifyDebts(balances)

	users, err := h.loadUsers(balances)

	if err != nil {
		slog.Error("failed to load users for balances", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve balances"})
		return
	}

	balanceResponses := make([]BalanceResponse, 0, len(balances))
	for _, bal := range balances {
		balanceResponses = append(balanceResponses, BalanceResponse{
			User:       users[bal.UserID],
			TotalPaid:  bal.TotalPaid,
			TotalOwed:  bal.TotalOwed,
			NetBalance: bal.NetBalance,
		})
	}

	debtResponses := make([]DebtResponse, 0, len(debts))
	for _, debt := range debts {
		debtResponses = append(debtResponses, DebtResponse{
			FromUser: users[debt.FromUserID],
			ToUser:   users[debt.ToUserID],
			Amount:   debt.Amount,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"balances": balanceResponses, "debts": debtResponses})
}

func (h *BalanceHandler) loadUsers(balances []split.MemberBalance) (map[uint]types.UserResponse, error) {
	ids := make([]uint, 0, len(balances))
	for _, bal := range balances {
		ids = append(ids, bal.UserID)
	}

	users := make(map[uint]types.UserResponse, len(ids))

	if len(ids) == 0 {
		return users, nil
	}

	var rows []models.User

	if err := h.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		users[row.ID] = toUserResponse(row)
	}

	return users, nil
}
