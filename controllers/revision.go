package controllers

import (
	"net/http"
	"strconv"

	"journal-management-api/apperrors"
	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// GetRevisionHistory returns all versions of a manuscript with submitter and
// file manifests, oldest first.
func GetRevisionHistory(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	revisions, err := services.NewRevisionService(nil).GetHistory(manuscriptID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"revisions": revisions,
		"total":     len(revisions),
	})
}

// CompareRevisions diffs two versions of a manuscript. The result is always
// oriented earlier -> later, whatever order the query parameters arrive in.
func CompareRevisions(c *gin.Context) {
	manuscriptID, ok := paramID(c, "id")
	if !ok {
		return
	}

	versionA, errA := strconv.Atoi(c.Query("from"))
	versionB, errB := strconv.Atoi(c.Query("to"))
	if errA != nil || errB != nil || versionA < 1 || versionB < 1 {
		respondError(c, apperrors.Validation("from and to must be version numbers >= 1"))
		return
	}

	comparison, err := services.NewRevisionService(nil).Compare(manuscriptID, versionA, versionB)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"comparison": comparison,
	})
}
