package models

import "time"

// Subject is a course-like entity owned by exactly one faculty member.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	FacultyID uint      `gorm:"not null;index" json:"faculty_id"`
	Faculty   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"faculty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enrollment links a student to a subject they may evaluate.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_subject" json:"student_id"`
	SubjectID uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_subject" json:"subject_id"`
	CreatedAt time.Time `json:"created_at"`
}
