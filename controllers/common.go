package controllers

import (
	"strconv"

	"journal-management-api/apperrors"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to the standard JSON error envelope.
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.StatusOf(err), gin.H{
		"success": false,
		"code":    apperrors.CodeOf(err),
		"error":   apperrors.MessageOf(err),
	})
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, apperrors.Validation("invalid %s", name))
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) int {
	return c.GetInt("userID")
}

func currentRoleID(c *gin.Context) int {
	return c.GetInt("roleID")
}
