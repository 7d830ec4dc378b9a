package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Owner keys for the shared role-wide forms. Subject forms use SubjectFormKey.
const (
	FormKeyFacultyDefault = "faculty-default"
	FormKeyDeanDefault    = "dean-default"
)

// SubjectFormKey returns the owner key for a subject-specific form.
func SubjectFormKey(subjectID uint) string {
	return fmt.Sprintf("subject:%d", subjectID)
}

// Question is a single Likert prompt. Order within a form is significant:
// submitted scores are aligned positionally with the questions they answer.
type Question struct {
	Text string `json:"text"`
}

// EvaluationForm stores the ordered question list for one owner key.
// Saving a form replaces the whole list and bumps Version; submissions
// record the version they were scored against so that historical records
// desynchronized by a reorder remain detectable.
type EvaluationForm struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerKey  string         `gorm:"size:64;uniqueIndex;not null" json:"owner_key"`
	Questions datatypes.JSON `gorm:"type:json" json:"questions"`
	Version   int            `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DecodeQuestions unmarshals the stored question list.
func (f EvaluationForm) DecodeQuestions() ([]Question, error) {
	if len(f.Questions) == 0 {
		return nil, nil
	}
	var questions []Question
	if err := json.Unmarshal(f.Questions, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode form questions: %w", err)
	}
	return questions, nil
}

// EncodeQuestions marshals a question list into the JSON column format.
func EncodeQuestions(questions []Question) (datatypes.JSON, error) {
	payload, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form questions: %w", err)
	}
	return datatypes.JSON(payload), nil
}
