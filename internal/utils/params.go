package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(name + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

func GetSocietyID(ctx *gin.Context) (uint, error) {
	return parseIDParam(ctx, "society_id")
}

func GetOutingID(ctx *gin.Context) (uint, error) {
	return parseIDParam(ctx, "outing_id")
}

func GetUserIDParam(ctx *gin.Context) (uint, error) {
	return parseIDParam(ctx, "user_id")
}
