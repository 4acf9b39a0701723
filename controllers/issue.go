package controllers

import (
	"net/http"

	"journal-management-api/config"
	"journal-management-api/models"
	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// GetIssues lists issues, newest first.
func GetIssues(c *gin.Context) {
	query := config.DB.Model(&models.Issue{})

	if published := c.Query("published"); published != "" {
		query = query.Where("is_published = ?", published == "true")
	}

	var issues []models.Issue
	if err := query.Order("year DESC, volume DESC, number DESC").Find(&issues).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issues":  issues,
		"total":   len(issues),
	})
}

// GetIssue returns one issue with its manuscripts.
func GetIssue(c *gin.Context) {
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var issue models.Issue
	if err := config.DB.Preload("Manuscripts", "delete_at IS NULL").
		First(&issue, "issue_id = ?", issueID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issue":   issue,
	})
}

// CreateIssue sets up a new unpublished issue.
func CreateIssue(c *gin.Context) {
	var input services.CreateIssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	issue, err := services.NewIssueService(nil).Create(&input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"issue":   issue,
	})
}

// AssignManuscriptToIssue links an accepted manuscript into an issue.
func AssignManuscriptToIssue(c *gin.Context) {
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		ManuscriptID int `json:"manuscript_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := services.NewManuscriptService(nil).AssignToIssue(req.ManuscriptID, issueID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Manuscript assigned to issue",
	})
}

// PublishIssue publishes the issue and every accepted manuscript in it.
func PublishIssue(c *gin.Context) {
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}

	issue, err := services.NewIssueService(nil).Publish(issueID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"issue":   issue,
	})
}
