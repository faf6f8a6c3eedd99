package models

import (
	"time"
)

// PeerReview is one reviewer's full evaluation of one teammate. There is at
// most one row per (reviewer, reviewee) pair; re-submission replaces the
// answers and comment in place.
type PeerReview struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	ReviewerID uint    `json:"reviewer_id" gorm:"not null;uniqueIndex:idx_reviewer_reviewee"`
	RevieweeID uint    `json:"reviewee_id" gorm:"not null;uniqueIndex:idx_reviewer_reviewee;index"`
	Comment    *string `json:"comment" gorm:"type:text"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Answers  []ReviewAnswer `json:"answers" gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE"`
	Reviewer User           `json:"-" gorm:"foreignKey:ReviewerID"`
	Reviewee User           `json:"-" gorm:"foreignKey:RevieweeID"`
}

// ReviewAnswer is a single rating against one criterion inside a PeerReview.
type ReviewAnswer struct {
	ID          uint `json:"-" gorm:"primaryKey"`
	ReviewID    uint `json:"-" gorm:"not null;uniqueIndex:idx_review_criterion"`
	CriterionID uint `json:"criterion_id" gorm:"not null;uniqueIndex:idx_review_criterion"`
	Rating      int  `json:"rating" gorm:"not null"`

	// Relations
	Criterion Criterion `json:"-" gorm:"foreignKey:CriterionID;constraint:OnDelete:CASCADE"`
}

func (PeerReview) TableName() string {
	return "peer_reviews"
}

func (ReviewAnswer) TableName() string {
	return "review_answers"
}
