package models

import "time"

// Revision is an immutable snapshot of a manuscript's files at one version.
// Version numbers are contiguous and start at 1 (the initial submission).
// Rows are only ever inserted, never updated.
type Revision struct {
	RevisionID            int       `gorm:"primaryKey;column:revision_id" json:"revision_id"`
	ManuscriptID          int       `gorm:"column:manuscript_id;uniqueIndex:idx_manuscript_version" json:"manuscript_id"`
	VersionNumber         int       `gorm:"column:version_number;uniqueIndex:idx_manuscript_version" json:"version_number"`
	IsInitial             bool      `gorm:"column:is_initial" json:"is_initial"`
	SubmittedBy           int       `gorm:"column:submitted_by" json:"submitted_by"`
	SubmittedAt           time.Time `gorm:"column:submitted_at" json:"submitted_at"`
	ResponseToReviewersID *int      `gorm:"column:response_to_reviewers_id" json:"response_to_reviewers_id,omitempty"`

	// Relations
	Submitter           User           `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	Files               []RevisionFile `gorm:"foreignKey:RevisionID" json:"files,omitempty"`
	ResponseToReviewers *FileUpload    `gorm:"foreignKey:ResponseToReviewersID" json:"response_to_reviewers,omitempty"`
}

// RevisionFile links one uploaded file into one revision's manifest. The same
// file_id may appear in several revisions (carried-over files).
type RevisionFile struct {
	RevisionFileID int `gorm:"primaryKey;column:revision_file_id" json:"revision_file_id"`
	RevisionID     int `gorm:"column:revision_id;uniqueIndex:idx_revision_file" json:"revision_id"`
	FileID         int `gorm:"column:file_id;uniqueIndex:idx_revision_file" json:"file_id"`
	FileOrder      int `gorm:"column:file_order" json:"file_order"`

	File FileUpload `gorm:"foreignKey:FileID" json:"file,omitempty"`
}

// TableName overrides
func (Revision) TableName() string {
	return "revisions"
}

func (RevisionFile) TableName() string {
	return "revision_files"
}
