package services

import (
	"log"
	"strconv"
	"sync"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"
)

// Tunable business rules live in the system_config table so they can change
// without touching transition logic.
const (
	ConfigKeyMinReviews         = "min_reviews_for_decision"
	ConfigKeyReviewDeadlineDays = "review_deadline_days"

	DefaultMinReviewsForDecision = 2
	DefaultReviewDeadlineDays    = 21
)

var (
	settingsCacheMu sync.RWMutex
	settingsCache   *settingsCacheEntry
	settingsTTL     = 5 * time.Minute
)

type settingsCacheEntry struct {
	values    map[string]string
	fetchedAt time.Time
}

func loadSettings(force bool) *settingsCacheEntry {
	settingsCacheMu.RLock()
	cached := settingsCache
	settingsCacheMu.RUnlock()

	if cached != nil && !force && time.Since(cached.fetchedAt) < settingsTTL {
		return cached
	}

	settingsCacheMu.Lock()
	defer settingsCacheMu.Unlock()

	if settingsCache != nil && !force && time.Since(settingsCache.fetchedAt) < settingsTTL {
		return settingsCache
	}

	values := make(map[string]string)
	var rows []models.SystemConfig
	if err := config.DB.Find(&rows).Error; err != nil {
		// Defaults still apply; a broken config table must not stall reviews.
		log.Printf("Warning: failed to load system config: %v", err)
	} else {
		for _, row := range rows {
			values[row.Key] = row.Value
		}
	}

	entry := &settingsCacheEntry{values: values, fetchedAt: time.Now()}
	settingsCache = entry
	return entry
}

// ClearSettingsCache invalidates the in-memory settings cache.
func ClearSettingsCache() {
	settingsCacheMu.Lock()
	defer settingsCacheMu.Unlock()
	settingsCache = nil
}

func intSetting(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// MinReviewsForDecision returns the completed-review count at which a
// manuscript becomes eligible for an editorial decision.
func MinReviewsForDecision() int {
	entry := loadSettings(false)
	return intSetting(entry.values[ConfigKeyMinReviews], DefaultMinReviewsForDecision)
}

// ReviewDeadlineDays returns the default reviewer deadline window.
func ReviewDeadlineDays() int {
	entry := loadSettings(false)
	return intSetting(entry.values[ConfigKeyReviewDeadlineDays], DefaultReviewDeadlineDays)
}
