package services

import (
	"journal-management-api/apperrors"
	"journal-management-api/models"
)

// manuscriptTransitions is the single source of truth for legal manuscript
// status edges. Every status write in this package goes through
// EnsureManuscriptTransition; nothing compares status strings at call sites.
var manuscriptTransitions = map[models.ManuscriptStatus][]models.ManuscriptStatus{
	models.ManuscriptSubmitted:        {models.ManuscriptUnderReview},
	models.ManuscriptUnderReview:      {models.ManuscriptReviewCompleted},
	models.ManuscriptReviewCompleted:  {models.ManuscriptRevisionRequired, models.ManuscriptAccepted, models.ManuscriptRejected},
	models.ManuscriptRevisionRequired: {models.ManuscriptSubmitted},
	models.ManuscriptAccepted:         {models.ManuscriptPublished},
	models.ManuscriptRejected:         {},
	models.ManuscriptPublished:        {},
}

// reviewTransitions covers one reviewer assignment. Accepting an invitation
// moves straight to in_progress; accepted is a transient state kept in the
// table so the edge remains expressible.
var reviewTransitions = map[models.ReviewStatus][]models.ReviewStatus{
	models.ReviewPendingInvitation: {models.ReviewAccepted, models.ReviewInProgress, models.ReviewDeclined},
	models.ReviewAccepted:          {models.ReviewInProgress},
	models.ReviewInProgress:        {models.ReviewCompleted},
	models.ReviewDeclined:          {},
	models.ReviewCompleted:         {},
}

// CanTransitionManuscript reports whether from -> to is a legal edge.
func CanTransitionManuscript(from, to models.ManuscriptStatus) bool {
	for _, next := range manuscriptTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EnsureManuscriptTransition returns an InvalidState error for illegal edges.
func EnsureManuscriptTransition(from, to models.ManuscriptStatus) error {
	if !CanTransitionManuscript(from, to) {
		return apperrors.InvalidState("manuscript cannot move from %s to %s", from, to)
	}
	return nil
}

// CanTransitionReview reports whether from -> to is a legal review edge.
func CanTransitionReview(from, to models.ReviewStatus) bool {
	for _, next := range reviewTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// EnsureReviewTransition returns an InvalidState error for illegal edges.
func EnsureReviewTransition(from, to models.ReviewStatus) error {
	if !CanTransitionReview(from, to) {
		return apperrors.InvalidState("review cannot move from %s to %s", from, to)
	}
	return nil
}

// DecisionOutcome maps an editorial decision to the resulting manuscript
// status.
func DecisionOutcome(decision models.DecisionType) (models.ManuscriptStatus, error) {
	switch decision {
	case models.DecisionAccept:
		return models.ManuscriptAccepted, nil
	case models.DecisionReject:
		return models.ManuscriptRejected, nil
	case models.DecisionMinorRevision, models.DecisionMajorRevision:
		return models.ManuscriptRevisionRequired, nil
	default:
		return "", apperrors.Validation("unknown decision %q", decision)
	}
}
