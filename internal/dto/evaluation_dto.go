package dto

import (
	"time"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// SubmitEvaluationRequest is one completed evaluation ready for scoring.
// Scores are aligned positionally with the resolved form's questions.
type SubmitEvaluationRequest struct {
	TargetType string `json:"target_type" validate:"required,oneof=subject faculty dean"`
	TargetID   uint   `json:"target_id" validate:"required"`
	Scores     []int  `json:"scores" validate:"required,min=1,dive,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=4000"`
}

// SubmitReceipt confirms a recorded evaluation.
type SubmitReceipt struct {
	TargetType           string    `json:"target_type"`
	TargetID             uint      `json:"target_id"`
	PercentageScore      float64   `json:"percentage_score"`
	Replaced             bool      `json:"replaced"`
	AverageScore         float64   `json:"average_score"`
	CompletedEvaluations int64     `json:"completed_evaluations"`
	SubmittedAt          time.Time `json:"submitted_at"`
}

// PendingSubjectResponse is a subject on the student's enrollment they have
// not evaluated yet.
type PendingSubjectResponse struct {
	SubjectID   uint   `json:"subject_id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	FacultyName string `json:"faculty_name"`
}

// NewPendingSubjectResponse maps a subject model into the pending listing.
func NewPendingSubjectResponse(subject models.Subject) PendingSubjectResponse {
	return PendingSubjectResponse{
		SubjectID:   subject.ID,
		Name:        subject.Name,
		Code:        subject.Code,
		FacultyName: subject.Faculty.DisplayName(),
	}
}
