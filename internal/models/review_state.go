package models

import (
	"time"

	"gorm.io/datatypes"
)

type ReviewStatus string

const (
	StatusDraft     ReviewStatus = "draft"
	StatusStarted   ReviewStatus = "started"
	StatusPublished ReviewStatus = "published"
)

// ReviewStateID is the fixed primary key of the singleton state row.
const ReviewStateID uint = 1

// ReviewState is the single source of truth for the review lifecycle phase.
// It is stored as one versioned row (id = 1) and mutated only under a row
// lock so that concurrent server instances agree on the phase.
type ReviewState struct {
	ID                 uint         `json:"-" gorm:"primaryKey"`
	Status             ReviewStatus `json:"status" gorm:"not null;size:20;default:draft"`
	SubmissionDeadline *time.Time   `json:"submission_deadline"`
	Version            int          `json:"version" gorm:"not null;default:1"`
	UpdatedBy          *uint        `json:"updated_by"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func (ReviewState) TableName() string {
	return "review_states"
}

// CriteriaEditable reports whether criteria may still be mutated.
func (s *ReviewState) CriteriaEditable() bool {
	return s.Status == StatusDraft
}

// SubmissionOpen reports whether reviews may be submitted or edited at the
// given instant. Submission requires the started phase and, when a deadline
// is set, that it has not passed.
func (s *ReviewState) SubmissionOpen(now time.Time) bool {
	if s.Status != StatusStarted {
		return false
	}
	if s.SubmissionDeadline != nil && !now.Before(*s.SubmissionDeadline) {
		return false
	}
	return true
}

// ResultsVisible reports whether students may read reviews about themselves.
func (s *ReviewState) ResultsVisible() bool {
	return s.Status == StatusPublished
}

// ReviewEvent is an audit record of a lifecycle action, written in the same
// transaction as the action itself and mirrored to the event publisher.
type ReviewEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Type      string         `json:"type" gorm:"not null;size:100;index"`
	ActorID   uint           `json:"actor_id" gorm:"not null"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (ReviewEvent) TableName() string {
	return "review_events"
}
