package controllers

import (
	"net/http"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// GetDoiStatus returns the deposit record with its full attempt history.
func GetDoiStatus(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	meta, err := services.NewDoiService(nil, nil).GetStatus(manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doi":     meta,
	})
}

// DepositDoi performs one registrar attempt for a published manuscript.
// A failed attempt is recorded in the deposit history before responding.
func DepositDoi(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	meta, err := services.NewDoiService(nil, nil).Deposit(c.Request.Context(), manuscriptID, currentUserID(c))
	if err != nil {
		if meta != nil {
			// The attempt happened and was recorded; surface both.
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   err.Error(),
				"doi":     meta,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doi":     meta,
	})
}

// RetryDoi re-attempts a failed or never-attempted deposit.
func RetryDoi(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	meta, err := services.NewDoiService(nil, nil).Retry(c.Request.Context(), manuscriptID, currentUserID(c))
	if err != nil {
		if meta != nil {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error":   err.Error(),
				"doi":     meta,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doi":     meta,
	})
}

// BulkRetryDoi re-attempts every failed deposit. Individual failures never
// abort the batch; the aggregate reports each manuscript's own outcome.
func BulkRetryDoi(c *gin.Context) {
	result, err := services.NewDoiService(nil, nil).BulkRetry(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

// ManualAssignDoi records an operator-supplied DOI, bypassing the registrar.
func ManualAssignDoi(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Doi string `json:"doi" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	meta, err := services.NewDoiService(nil, nil).ManualAssign(manuscriptID, currentUserID(c), req.Doi)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"doi":     meta,
	})
}
