package models

import (
	"time"
)

// Scale is the inclusive rating range for a criterion.
type Scale struct {
	Min int `json:"min" gorm:"not null;default:1"`
	Max int `json:"max" gorm:"not null;default:5"`
}

// Criterion is one instructor-defined rating dimension. Mutable only while
// the review round is in draft.
type Criterion struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description string  `json:"description" gorm:"type:text"`
	Required    bool    `json:"required" gorm:"not null;default:true"`
	Scale       Scale   `json:"scale" gorm:"embedded;embeddedPrefix:scale_"`
	Weight      float64 `json:"weight" gorm:"not null;default:1.0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Criterion) TableName() string {
	return "criteria"
}

// InScale reports whether rating lies within the criterion's bounds.
func (c *Criterion) InScale(rating int) bool {
	return rating >= c.Scale.Min && rating <= c.Scale.Max
}
