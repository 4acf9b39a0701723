// controllers/manuscript.go
package controllers

import (
	"net/http"

	"journal-management-api/config"
	"journal-management-api/models"
	"journal-management-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ===================== MANUSCRIPT MANAGEMENT =====================

// GetManuscripts returns the caller's manuscripts; editors and admins see all.
func GetManuscripts(c *gin.Context) {
	userID := currentUserID(c)
	roleID := currentRoleID(c)

	status := c.Query("status")

	query := config.DB.Preload("Submitter").
		Preload("Editor").
		Preload("Issue").
		Preload("Authors").
		Where("delete_at IS NULL")

	// Authors only see their own submissions
	if roleID != models.RoleEditor && roleID != models.RoleAdmin {
		query = query.Where("submitted_by = ?", userID)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var manuscripts []models.Manuscript
	if err := query.Order("submitted_at DESC").Find(&manuscripts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch manuscripts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"manuscripts": manuscripts,
		"total":       len(manuscripts),
	})
}

// GetManuscript returns a specific manuscript with its full editorial record.
func GetManuscript(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID := currentUserID(c)
	roleID := currentRoleID(c)

	var manuscript models.Manuscript
	query := config.DB.Preload("Submitter").
		Preload("Editor").
		Preload("Issue").
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("author_order ASC") }).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB { return db.Order("version_number ASC") }).
		Preload("Revisions.Files.File").
		Preload("Reviews.Reviewer").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Decision").
		Preload("Doi").
		Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID)

	if err := query.First(&manuscript).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Manuscript not found"})
		return
	}

	// Authors only see their own; reviewers only their assignments.
	if roleID != models.RoleEditor && roleID != models.RoleAdmin && manuscript.SubmittedBy != userID {
		assigned := false
		for _, review := range manuscript.Reviews {
			if review.ReviewerID == userID {
				assigned = true
				break
			}
		}
		if !assigned {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
	}

	// Confidential reviewer comments are for editors only.
	if roleID != models.RoleEditor && roleID != models.RoleAdmin {
		for i := range manuscript.Reviews {
			if manuscript.Reviews[i].ReviewerID != userID {
				manuscript.Reviews[i].CommentsForEditor = nil
			}
		}
		if manuscript.Decision != nil {
			manuscript.Decision.InternalNotes = nil
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"manuscript": manuscript,
	})
}

// SubmitManuscript creates a manuscript at version 1.
func SubmitManuscript(c *gin.Context) {
	var input services.SubmitManuscriptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	input.SubmittedBy = currentUserID(c)

	manuscript, err := services.NewManuscriptService(nil).Submit(&input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"manuscript": manuscript,
		"message":    "Manuscript submitted successfully",
	})
}

// AssignReviewers invites reviewers and moves the manuscript under review.
func AssignReviewers(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reviewers []services.ReviewerAssignment `json:"reviewers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reviews, err := services.NewManuscriptService(nil).AssignReviewers(manuscriptID, currentUserID(c), req.Reviewers)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"reviews": reviews,
		"total":   len(reviews),
	})
}

// RecordDecision writes the editor's binding accept/reject/revision ruling.
func RecordDecision(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input services.DecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	decision, err := services.NewManuscriptService(nil).RecordDecision(manuscriptID, currentUserID(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"decision": decision,
	})
}

// SubmitRevision appends the next manuscript version under revision_required.
func SubmitRevision(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input services.RevisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	revision, err := services.NewManuscriptService(nil).SubmitRevision(manuscriptID, currentUserID(c), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"revision": revision,
		"message":  "Revision submitted successfully",
	})
}

// PublishManuscript publishes a single accepted, issue-assigned manuscript.
func PublishManuscript(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	manuscript, err := services.NewManuscriptService(nil).Publish(manuscriptID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"manuscript": manuscript,
	})
}

// DeleteManuscript soft-deletes a manuscript. force=true (admin) overrides
// the protection for manuscripts that already have reviews.
func DeleteManuscript(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	force := c.Query("force") == "true" && currentRoleID(c) == models.RoleAdmin

	if err := services.NewManuscriptService(nil).Delete(manuscriptID, currentUserID(c), force); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Manuscript deleted",
	})
}
