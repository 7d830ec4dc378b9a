package dto

import (
	"time"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// SubmissionSummary is one ledger record in a target's result view.
type SubmissionSummary struct {
	Scores          []int     `json:"scores"`
	Comment         string    `json:"comment"`
	PercentageScore float64   `json:"percentage_score"`
	FormVersion     int       `json:"form_version"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// TargetResultsResponse is the aggregate plus the submissions it was built
// from. Evaluator identities are deliberately omitted: results are read by
// the evaluated member.
type TargetResultsResponse struct {
	TargetType           string              `json:"target_type"`
	TargetID             uint                `json:"target_id"`
	AverageScore         float64             `json:"average_score"`
	CompletedEvaluations int64               `json:"completed_evaluations"`
	Submissions          []SubmissionSummary `json:"submissions"`
}

// NewSubmissionSummary maps a ledger record into the result view.
func NewSubmissionSummary(evaluation models.Evaluation) SubmissionSummary {
	scores, err := evaluation.DecodeScores()
	if err != nil {
		scores = nil
	}

	return SubmissionSummary{
		Scores:          scores,
		Comment:         evaluation.Comment,
		PercentageScore: evaluation.PercentageScore,
		FormVersion:     evaluation.FormVersion,
		SubmittedAt:     evaluation.UpdatedAt,
	}
}
