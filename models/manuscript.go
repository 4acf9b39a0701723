package models

import "time"

// ManuscriptStatus is the closed set of manuscript lifecycle states.
type ManuscriptStatus string

const (
	ManuscriptSubmitted        ManuscriptStatus = "submitted"
	ManuscriptUnderReview      ManuscriptStatus = "under_review"
	ManuscriptReviewCompleted  ManuscriptStatus = "review_completed"
	ManuscriptRevisionRequired ManuscriptStatus = "revision_required"
	ManuscriptAccepted         ManuscriptStatus = "accepted"
	ManuscriptRejected         ManuscriptStatus = "rejected"
	ManuscriptPublished        ManuscriptStatus = "published"
)

// IsTerminal reports whether no further status transition is legal.
// Published manuscripts still receive DOI metadata updates.
func (s ManuscriptStatus) IsTerminal() bool {
	return s == ManuscriptRejected || s == ManuscriptPublished
}

// DecisionType is the editor's binding ruling.
type DecisionType string

const (
	DecisionAccept        DecisionType = "accept"
	DecisionMinorRevision DecisionType = "minor_revision"
	DecisionMajorRevision DecisionType = "major_revision"
	DecisionReject        DecisionType = "reject"
)

// Manuscript represents the manuscripts table.
type Manuscript struct {
	ManuscriptID   int              `gorm:"primaryKey;column:manuscript_id" json:"manuscript_id"`
	ManuscriptCode string           `gorm:"column:manuscript_code;unique" json:"manuscript_code"`
	Title          string           `gorm:"column:title" json:"title"`
	Abstract       string           `gorm:"column:abstract" json:"abstract"`
	Keywords       string           `gorm:"column:keywords" json:"keywords"` // comma separated
	Status         ManuscriptStatus `gorm:"column:status" json:"status"`
	SubmittedBy    int              `gorm:"column:submitted_by" json:"submitted_by"`
	EditorID       *int             `gorm:"column:editor_id" json:"editor_id,omitempty"`
	IssueID        *int             `gorm:"column:issue_id" json:"issue_id,omitempty"`
	SubmittedAt    time.Time        `gorm:"column:submitted_at" json:"submitted_at"`
	PublishedAt    *time.Time       `gorm:"column:published_at" json:"published_at,omitempty"`
	CreateAt       time.Time        `gorm:"column:create_at" json:"create_at"`
	UpdateAt       time.Time        `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time       `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Submitter User                 `gorm:"foreignKey:SubmittedBy" json:"submitter,omitempty"`
	Editor    *User                `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
	Issue     *Issue               `gorm:"foreignKey:IssueID" json:"issue,omitempty"`
	Authors   []ManuscriptAuthor   `gorm:"foreignKey:ManuscriptID" json:"authors,omitempty"`
	Revisions []Revision           `gorm:"foreignKey:ManuscriptID" json:"revisions,omitempty"`
	Reviews   []Review             `gorm:"foreignKey:ManuscriptID" json:"reviews,omitempty"`
	Timeline  []ManuscriptTimeline `gorm:"foreignKey:ManuscriptID" json:"timeline,omitempty"`
	Decision  *EditorialDecision   `gorm:"foreignKey:ManuscriptID" json:"decision,omitempty"`
	Doi       *DoiMetadata         `gorm:"foreignKey:ManuscriptID" json:"doi,omitempty"`
}

// ManuscriptAuthor is one listed author. Exactly one row per manuscript
// carries is_corresponding=true; the service layer enforces it on submit.
type ManuscriptAuthor struct {
	AuthorID        int     `gorm:"primaryKey;column:author_id" json:"author_id"`
	ManuscriptID    int     `gorm:"column:manuscript_id" json:"manuscript_id"`
	Name            string  `gorm:"column:name" json:"name"`
	Affiliation     string  `gorm:"column:affiliation" json:"affiliation"`
	Email           *string `gorm:"column:email" json:"email,omitempty"`
	OrcidID         *string `gorm:"column:orcid_id" json:"orcid_id,omitempty"`
	IsCorresponding bool    `gorm:"column:is_corresponding" json:"is_corresponding"`
	AuthorOrder     int     `gorm:"column:author_order" json:"author_order"`
}

// ManuscriptTimeline is the append-only event log for a manuscript.
type ManuscriptTimeline struct {
	EventID      int       `gorm:"primaryKey;column:event_id" json:"event_id"`
	ManuscriptID int       `gorm:"column:manuscript_id" json:"manuscript_id"`
	Event        string    `gorm:"column:event" json:"event"`
	Detail       *string   `gorm:"column:detail" json:"detail,omitempty"`
	ActorID      *int      `gorm:"column:actor_id" json:"actor_id,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// EditorialDecision records the editor's binding ruling on a manuscript.
type EditorialDecision struct {
	DecisionID    int          `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	ManuscriptID  int          `gorm:"column:manuscript_id" json:"manuscript_id"`
	Decision      DecisionType `gorm:"column:decision" json:"decision"`
	DecisionRound int          `gorm:"column:decision_round" json:"decision_round"`
	Letter        string       `gorm:"column:letter" json:"letter"`
	InternalNotes *string      `gorm:"column:internal_notes" json:"internal_notes,omitempty"`
	DecidedBy     int          `gorm:"column:decided_by" json:"decided_by"`
	DecidedAt     time.Time    `gorm:"column:decided_at" json:"decided_at"`

	Decider *User `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
}

// TableName overrides
func (Manuscript) TableName() string {
	return "manuscripts"
}

func (ManuscriptAuthor) TableName() string {
	return "manuscript_authors"
}

func (ManuscriptTimeline) TableName() string {
	return "manuscript_timeline"
}

func (EditorialDecision) TableName() string {
	return "editorial_decisions"
}
