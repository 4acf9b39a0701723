package services

import (
	"testing"

	"journal-management-api/apperrors"
	"journal-management-api/models"
)

func validSubmission() *SubmitReviewInput {
	return &SubmitReviewInput{
		Ratings:           Ratings{Originality: 4, Methodology: 3, Clarity: 5, Significance: 4},
		CommentsForAuthor: "Solid contribution, minor issues in section 3.",
		CommentsForEditor: "Recommend acceptance after small fixes.",
		Recommendation:    models.RecommendMinorRevision,
	}
}

func TestValidateReviewSubmission(t *testing.T) {
	if err := validateReviewSubmission(validSubmission()); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(in *SubmitReviewInput)
	}{
		{"rating below scale", func(in *SubmitReviewInput) { in.Ratings.Originality = 0 }},
		{"rating above scale", func(in *SubmitReviewInput) { in.Ratings.Significance = 6 }},
		{"negative rating", func(in *SubmitReviewInput) { in.Ratings.Clarity = -1 }},
		{"empty author comments", func(in *SubmitReviewInput) { in.CommentsForAuthor = "" }},
		{"blank author comments", func(in *SubmitReviewInput) { in.CommentsForAuthor = "   " }},
		{"empty editor comments", func(in *SubmitReviewInput) { in.CommentsForEditor = "" }},
		{"unknown recommendation", func(in *SubmitReviewInput) { in.Recommendation = "publish_immediately" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSubmission()
			tt.mutate(in)
			err := validateReviewSubmission(in)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperrors.Is(err, apperrors.CodeValidation) {
				t.Errorf("expected validation code, got %s", apperrors.CodeOf(err))
			}
		})
	}
}

func TestIntSetting(t *testing.T) {
	tests := []struct {
		value    string
		fallback int
		want     int
	}{
		{"5", 2, 5},
		{"", 2, 2},
		{"abc", 2, 2},
		{"0", 2, 2},
		{"-3", 21, 21},
		{"14", 21, 14},
	}

	for _, tt := range tests {
		if got := intSetting(tt.value, tt.fallback); got != tt.want {
			t.Errorf("intSetting(%q, %d) = %d, want %d", tt.value, tt.fallback, got, tt.want)
		}
	}
}
