package controllers

import (
	"net/http"
	"strings"

	"journal-management-api/apperrors"
	"journal-management-api/config"
	"journal-management-api/models"
	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// GetMyReviews lists the calling reviewer's assignments.
func GetMyReviews(c *gin.Context) {
	userID := currentUserID(c)

	query := config.DB.Preload("Manu").
		Preload("Assigner").
		Where("reviewer_id = ?", userID)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var reviews []models.Review
	if err := query.Order("invited_at DESC").Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
		"total":   len(reviews),
	})
}

// RespondToInvitation records the reviewer's accept/decline response.
func RespondToInvitation(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Response string `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	response := strings.ToLower(strings.TrimSpace(req.Response))
	if response != "accepted" && response != "declined" {
		respondError(c, apperrors.Validation("response must be either 'accepted' or 'declined'"))
		return
	}

	review, err := services.NewReviewService(nil).RespondToInvitation(reviewID, currentUserID(c), response == "accepted")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"review":  review,
	})
}

// SubmitReview completes the caller's in_progress review.
func SubmitReview(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input services.SubmitReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := services.NewReviewService(nil).SubmitReview(reviewID, currentUserID(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"review":  review,
		"message": "Review submitted successfully",
	})
}

// SendReviewReminder re-notifies a reviewer with an open review.
func SendReviewReminder(c *gin.Context) {
	reviewID, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := services.NewReviewService(nil).SendReminder(reviewID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Reminder sent",
	})
}

// GetReviewAggregate returns the advisory recommendation summary for a
// manuscript. The decision itself always comes from the editor.
func GetReviewAggregate(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	aggregate, err := services.NewReviewService(nil).Aggregate(manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"aggregate": aggregate,
	})
}
