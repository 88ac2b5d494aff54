package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PromptModeHybrid = "hybrid"
	FirstPromptIndex = 1
)

// DailyPrompt binds a user, a calendar date and a sequence index to a question.
// Rows are append-only; the highest index for a (user, date) is the current prompt.
type DailyPrompt struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_prompts_user_date_index,priority:1" json:"userId"`
	PromptDate  time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_prompts_user_date_index,priority:2" json:"promptDate"`
	PromptIndex int       `gorm:"not null;default:1;uniqueIndex:idx_daily_prompts_user_date_index,priority:3" json:"promptIndex"`
	QuestionID  uuid.UUID `gorm:"type:uuid;not null"                                            json:"questionId"`
	Question    *Question `gorm:"foreignKey:QuestionID"                                         json:"question,omitempty"`
	Mode        string    `gorm:"type:text;not null;default:'hybrid'"                           json:"mode"`
	CreatedAt   time.Time `gorm:"autoCreateTime"                                                json:"createdAt"`
}

func (DailyPrompt) TableName() string {
	return "daily_prompts"
}

// ParseISODate parses a YYYY-MM-DD string into a UTC midnight time
func ParseISODate(isoDate string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, isoDate, time.UTC)
}
