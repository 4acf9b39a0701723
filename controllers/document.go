package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadFile stores one file and records its manifest row. The SHA-256 hash
// recorded here is the content signature the revision diff engine compares.
func UploadFile(c *gin.Context) {
	userID := currentUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// Validate file size
	maxSize := int64(25 * 1024 * 1024) // 25MB
	if file.Size > maxSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 25MB limit"})
		return
	}

	// Validate file type
	allowedTypes := map[string]bool{
		".pdf":  true,
		".doc":  true,
		".docx": true,
		".tex":  true,
		".zip":  true,
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedTypes[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
		return
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	if err := os.MkdirAll(uploadPath, os.ModePerm); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload directory"})
		return
	}

	storedName := uuid.NewString() + ext
	fullPath := filepath.Join(uploadPath, storedName)

	if err := c.SaveUploadedFile(file, fullPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	hash, err := hashFile(fullPath)
	if err != nil {
		os.Remove(fullPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash file"})
		return
	}

	now := time.Now()
	fileUpload := models.FileUpload{
		OriginalName: file.Filename,
		StoredPath:   fullPath,
		FileSize:     file.Size,
		MimeType:     file.Header.Get("Content-Type"),
		SHA256Hash:   hash,
		UploadedBy:   userID,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}

	if err := config.DB.Create(&fileUpload).Error; err != nil {
		// Delete uploaded file if database save fails
		os.Remove(fullPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file info"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"file":    fileUpload,
		"message": "File uploaded successfully",
	})
}

// DownloadFile streams a stored file back to its uploader, or to editors,
// admins and reviewers assigned to a manuscript referencing it.
func DownloadFile(c *gin.Context) {
	fileID, ok := paramID(c, "file_id")
	if !ok {
		return
	}
	userID := currentUserID(c)
	roleID := currentRoleID(c)

	var file models.FileUpload
	if err := config.DB.First(&file, "file_id = ? AND delete_at IS NULL", fileID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	if roleID != models.RoleEditor && roleID != models.RoleAdmin && file.UploadedBy != userID {
		allowed, err := reviewerHasFileAccess(config.DB, fileID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check file access"})
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
	}

	if _, err := os.Stat(file.StoredPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File is missing from storage"})
		return
	}

	c.FileAttachment(file.StoredPath, file.OriginalName)
}

// reviewerHasFileAccess reports whether the user reviews a manuscript whose
// revision manifests reference the file.
func reviewerHasFileAccess(db *gorm.DB, fileID, userID int) (bool, error) {
	var count int64
	err := db.Table("reviews").
		Joins("JOIN revisions r ON r.manuscript_id = reviews.manuscript_id").
		Joins("JOIN revision_files rf ON rf.revision_id = r.revision_id").
		Where("rf.file_id = ? AND reviews.reviewer_id = ?", fileID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
