package models

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackRating string

const (
	FeedbackRatingUp   FeedbackRating = "up"
	FeedbackRatingDown FeedbackRating = "down"
)

func (r FeedbackRating) IsValid() bool {
	return r == FeedbackRatingUp || r == FeedbackRatingDown
}

type QuestionFeedback struct {
	UserID     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"userId"`
	QuestionID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"questionId"`
	Rating     FeedbackRating `gorm:"type:text;not null"   json:"rating"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"       json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"       json:"updatedAt"`
}

func (QuestionFeedback) TableName() string {
	return "question_feedback"
}
