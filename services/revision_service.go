package services

import (
	"errors"
	"sort"

	"journal-management-api/apperrors"
	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

// RevisionService reads the immutable version history and computes file-level
// diffs between any two versions. It never mutates revisions; appending new
// ones belongs to ManuscriptService.SubmitRevision.
type RevisionService struct {
	db *gorm.DB
}

func NewRevisionService(db *gorm.DB) *RevisionService {
	if db == nil {
		db = config.DB
	}
	return &RevisionService{db: db}
}

// FileRef is the per-file metadata a caller needs to request a download from
// the file storage collaborator.
type FileRef struct {
	FileID int    `json:"file_id"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Hash   string `json:"-"`
}

// ComparisonSummary counts the three disjoint diff sets.
type ComparisonSummary struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

// RevisionComparison reports the diff between two versions, always oriented
// chronologically (earlier -> later) regardless of argument order.
type RevisionComparison struct {
	ManuscriptID int               `json:"manuscript_id"`
	FromVersion  int               `json:"from_version"`
	ToVersion    int               `json:"to_version"`
	Summary      ComparisonSummary `json:"summary"`
	Added        []FileRef         `json:"added"`
	Modified     []FileRef         `json:"modified"`
	Removed      []FileRef         `json:"removed"`
}

// GetHistory returns all revisions of a manuscript ordered by version, each
// with its submitter and file manifest. Read-only.
func (s *RevisionService) GetHistory(manuscriptID int) ([]models.Revision, error) {
	if err := s.ensureManuscript(manuscriptID); err != nil {
		return nil, err
	}

	var revisions []models.Revision
	err := s.db.Preload("Submitter").
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("file_order ASC") }).
		Preload("Files.File").
		Preload("ResponseToReviewers").
		Where("manuscript_id = ?", manuscriptID).
		Order("version_number ASC").
		Find(&revisions).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return revisions, nil
}

// Compare diffs two versions of one manuscript. Files are matched by stable
// file identifier, so a renamed-but-unchanged file is not an add+remove pair.
func (s *RevisionService) Compare(manuscriptID, versionA, versionB int) (*RevisionComparison, error) {
	if versionA == versionB {
		return nil, apperrors.Validation("cannot compare version %d with itself", versionA)
	}
	if err := s.ensureManuscript(manuscriptID); err != nil {
		return nil, err
	}

	// Normalize to chronological order so argument order never flips the
	// added/removed direction.
	earlier, later := versionA, versionB
	if earlier > later {
		earlier, later = later, earlier
	}

	fromManifest, err := s.loadManifest(manuscriptID, earlier)
	if err != nil {
		return nil, err
	}
	toManifest, err := s.loadManifest(manuscriptID, later)
	if err != nil {
		return nil, err
	}

	added, modified, removed := CompareManifests(fromManifest, toManifest)
	return &RevisionComparison{
		ManuscriptID: manuscriptID,
		FromVersion:  earlier,
		ToVersion:    later,
		Summary: ComparisonSummary{
			Added:    len(added),
			Modified: len(modified),
			Removed:  len(removed),
		},
		Added:    added,
		Modified: modified,
		Removed:  removed,
	}, nil
}

// CompareManifests computes the three disjoint diff sets between an earlier
// and a later manifest. A file present in both is modified when its size
// differs, or when both sides carry a content signature and it differs;
// identical identifier and size without a differing signature is unchanged.
func CompareManifests(from, to []FileRef) (added, modified, removed []FileRef) {
	fromByID := make(map[int]FileRef, len(from))
	for _, f := range from {
		fromByID[f.FileID] = f
	}
	toByID := make(map[int]FileRef, len(to))
	for _, f := range to {
		toByID[f.FileID] = f
	}

	for _, f := range to {
		prev, ok := fromByID[f.FileID]
		if !ok {
			added = append(added, f)
			continue
		}
		if prev.Size != f.Size {
			modified = append(modified, f)
			continue
		}
		if prev.Hash != "" && f.Hash != "" && prev.Hash != f.Hash {
			modified = append(modified, f)
		}
	}
	for _, f := range from {
		if _, ok := toByID[f.FileID]; !ok {
			removed = append(removed, f)
		}
	}

	sortRefs(added)
	sortRefs(modified)
	sortRefs(removed)
	return added, modified, removed
}

func sortRefs(refs []FileRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].FileID < refs[j].FileID })
}

func (s *RevisionService) ensureManuscript(manuscriptID int) error {
	var count int64
	if err := s.db.Model(&models.Manuscript{}).
		Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).
		Count(&count).Error; err != nil {
		return apperrors.Internal(err)
	}
	if count == 0 {
		return apperrors.NotFound("manuscript %d not found", manuscriptID)
	}
	return nil
}

func (s *RevisionService) loadManifest(manuscriptID, version int) ([]FileRef, error) {
	var revision models.Revision
	err := s.db.Preload("Files.File").
		Where("manuscript_id = ? AND version_number = ?", manuscriptID, version).
		First(&revision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("manuscript %d has no version %d", manuscriptID, version)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refs := make([]FileRef, 0, len(revision.Files))
	for _, link := range revision.Files {
		refs = append(refs, FileRef{
			FileID: link.FileID,
			Name:   link.File.OriginalName,
			Size:   link.File.FileSize,
			Hash:   link.File.SHA256Hash,
		})
	}
	return refs, nil
}
