package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Target types an evaluation can address.
const (
	TargetSubject = "subject"
	TargetFaculty = "faculty"
	TargetDean    = "dean"
)

// ValidTargetType reports whether the given string names a known target type.
func ValidTargetType(targetType string) bool {
	switch targetType {
	case TargetSubject, TargetFaculty, TargetDean:
		return true
	}
	return false
}

// Evaluation is one member's completed evaluation of one target. The
// composite unique index enforces the ledger contract: at most one record
// per evaluator/target pair, resubmission replaces it in place.
type Evaluation struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	EvaluatorID     uint           `gorm:"not null;uniqueIndex:idx_evaluation_evaluator_target" json:"evaluator_id"`
	TargetType      string         `gorm:"size:16;not null;uniqueIndex:idx_evaluation_evaluator_target;index:idx_evaluation_target" json:"target_type"`
	TargetID        uint           `gorm:"not null;uniqueIndex:idx_evaluation_evaluator_target;index:idx_evaluation_target" json:"target_id"`
	Scores          datatypes.JSON `gorm:"type:json;not null" json:"scores"`
	Comment         string         `gorm:"type:text" json:"comment"`
	PercentageScore float64        `gorm:"not null" json:"percentage_score"`
	FormVersion     int            `gorm:"not null;default:1" json:"form_version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// DecodeScores unmarshals the stored response sequence.
func (e Evaluation) DecodeScores() ([]int, error) {
	if len(e.Scores) == 0 {
		return nil, nil
	}
	var scores []int
	if err := json.Unmarshal(e.Scores, &scores); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation scores: %w", err)
	}
	return scores, nil
}

// EncodeScores marshals a response sequence into the JSON column format.
func EncodeScores(scores []int) (datatypes.JSON, error) {
	payload, err := json.Marshal(scores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluation scores: %w", err)
	}
	return datatypes.JSON(payload), nil
}
