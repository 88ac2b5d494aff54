package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type LifeStage string

const (
	LifeStageTeen       LifeStage = "teen"
	LifeStageYoungAdult LifeStage = "young_adult"
	LifeStageAdult      LifeStage = "adult"
	LifeStageMidlife    LifeStage = "midlife"
	LifeStageSenior     LifeStage = "senior"

	DefaultLifeStage = LifeStageAdult
	DefaultPlan      = "free"
)

var LifeStages = []LifeStage{
	LifeStageTeen,
	LifeStageYoungAdult,
	LifeStageAdult,
	LifeStageMidlife,
	LifeStageSenior,
}

func (l LifeStage) IsValid() bool {
	return slices.Contains(LifeStages, l)
}

// Profile is the subset of the user profile consumed by prompt selection and the
// feature gate. ID is the auth user id.
type Profile struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Plan                  *string   `gorm:"type:text"             json:"plan"`
	LifeStage             *string   `gorm:"type:text"             json:"lifeStage"`
	TranscriptionLanguage *string   `gorm:"type:text"             json:"transcriptionLanguage"`
	CreatedAt             time.Time `gorm:"autoCreateTime"        json:"createdAt"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"        json:"updatedAt"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ResolvedLifeStage returns the profile's life stage, or the default when the
// profile is missing or holds an unknown value.
func (p *Profile) ResolvedLifeStage() LifeStage {
	if p == nil || p.LifeStage == nil {
		return DefaultLifeStage
	}
	stage := LifeStage(*p.LifeStage)
	if !stage.IsValid() {
		return DefaultLifeStage
	}
	return stage
}

func (p *Profile) ResolvedPlan() string {
	if p == nil || p.Plan == nil || *p.Plan == "" {
		return DefaultPlan
	}
	return *p.Plan
}
