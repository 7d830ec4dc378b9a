package models

import "time"

// AggregateScore is the running mean and count of evaluations on file for
// one target. Invariant: AverageScore equals the mean of PercentageScore
// over all ledger records for the target and CompletedEvaluations equals
// their count, including after in-place resubmissions.
//
// The row is keyed by (TargetType, TargetID); user and subject ids come
// from different tables and may collide numerically.
type AggregateScore struct {
	TargetType           string    `gorm:"primaryKey;size:16" json:"target_type"`
	TargetID             uint      `gorm:"primaryKey" json:"target_id"`
	AverageScore         float64   `gorm:"not null" json:"average_score"`
	CompletedEvaluations int64     `gorm:"not null" json:"completed_evaluations"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Fold applies one new percentage score to the running aggregate.
//
// A first-time evaluator extends the mean; a resubmission shifts it by the
// score delta without touching the count. Treating a resubmission as new
// would inflate CompletedEvaluations and skew the mean on every edit, so
// callers must pass the previous score read from the record being
// replaced, under the same transaction that replaces it.
func (a *AggregateScore) Fold(newScore, previousScore float64, isReplacement bool) {
	switch {
	case a.CompletedEvaluations == 0:
		a.AverageScore = newScore
		a.CompletedEvaluations = 1
	case isReplacement:
		a.AverageScore += (newScore - previousScore) / float64(a.CompletedEvaluations)
	default:
		count := float64(a.CompletedEvaluations)
		a.AverageScore = (a.AverageScore*count + newScore) / (count + 1)
		a.CompletedEvaluations++
	}
}
