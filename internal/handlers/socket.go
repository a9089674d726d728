package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/authz"
	"github.com/outly-dev/outly/internal/utils"
	"github.com/outly-dev/outly/internal/ws"
	"gorm.io/gorm"
)

type SocketHandler struct {
	db  *gorm.DB
	hub *ws.Hub
}

func NewSocketHandler(conn *gorm.DB, hub *ws.Hub) *SocketHandler {
	return &SocketHandler{db: conn, hub: hub}
}

// Subscribe upgrades the connection and streams refresh notifications for the
// society. Membership is checked before the upgrade.
func (h *SocketHandler) Subscribe(ctx *gin.Context) {
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

	h.hub.Serve(ctx.Writer, ctx.Request, societyID)
}
