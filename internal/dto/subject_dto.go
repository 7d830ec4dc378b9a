package dto

import "github.com/noah-isme/evalia-go-api/internal/models"

// SubjectCreateRequest provisions a new subject under a faculty member.
type SubjectCreateRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	Code      string `json:"code" validate:"required,max=32"`
	FacultyID uint   `json:"faculty_id" validate:"required"`
}

// SubjectUpdateRequest partially updates a subject.
type SubjectUpdateRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	Code      *string `json:"code" validate:"omitempty,max=32"`
	FacultyID *uint   `json:"faculty_id"`
}

// EnrollmentRequest links a student to a subject.
type EnrollmentRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
	SubjectID uint `json:"subject_id" validate:"required"`
}

// SubjectResponse is a subject with its owning faculty member.
type SubjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	FacultyID   uint   `json:"faculty_id"`
	FacultyName string `json:"faculty_name"`
}

// TargetSummary is one evaluable target in a listing.
type TargetSummary struct {
	TargetType  string `json:"target_type"`
	TargetID    uint   `json:"target_id"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department,omitempty"`
}

// NewSubjectResponse maps a subject model.
func NewSubjectResponse(subject models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:          subject.ID,
		Name:        subject.Name,
		Code:        subject.Code,
		FacultyID:   subject.FacultyID,
		FacultyName: subject.Faculty.DisplayName(),
	}
}

// NewSubjectResponseSlice maps a slice of subject models.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	responses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, NewSubjectResponse(subject))
	}
	return responses
}
