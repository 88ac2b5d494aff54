package models

import "github.com/google/uuid"

const FeatureTranscription = "transcription"

// PlanFeature is the plan-level default for a feature. A nil LimitValue means unlimited.
type PlanFeature struct {
	Plan       string `gorm:"type:text;primaryKey" json:"plan"`
	FeatureKey string `gorm:"type:text;primaryKey" json:"featureKey"`
	Enabled    bool   `gorm:"not null"             json:"enabled"`
	LimitValue *int   `                            json:"limitValue"`
}

func (PlanFeature) TableName() string {
	return "plan_features"
}

// UserFeatureOverride takes precedence over the plan default wherever a field is non-nil
type UserFeatureOverride struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	FeatureKey string    `gorm:"type:text;primaryKey" json:"featureKey"`
	Enabled    *bool     `                            json:"enabled"`
	LimitValue *int      `                            json:"limitValue"`
}

func (UserFeatureOverride) TableName() string {
	return "user_feature_overrides"
}
