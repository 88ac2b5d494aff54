package models

import (
	"bytes"
	"encoding/json"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Question struct {
	BaseUUIDModel
	Text      string         `gorm:"type:text;not null"      json:"text"`
	TextES    *string        `gorm:"column:text_es;type:text" json:"textEs,omitempty"`
	LifeStage datatypes.JSON `gorm:"type:jsonb"              json:"lifeStage,omitempty"`
	Tags      pq.StringArray `gorm:"type:text[]"             json:"tags"`
	IsActive  bool           `gorm:"not null;default:true"   json:"isActive"`
}

func (Question) TableName() string {
	return "questions"
}

// LifeStageAffinity is the normalized form of questions.life_stage, which is stored
// as null, a single stage string, or an array of stages.
type LifeStageAffinity struct {
	Set    bool
	Single bool
	Stages []string
}

// GenericAffinity targets every user
func GenericAffinity() LifeStageAffinity {
	return LifeStageAffinity{}
}

func SingleStageAffinity(stage string) LifeStageAffinity {
	return LifeStageAffinity{Set: true, Single: true, Stages: []string{stage}}
}

func MultiStageAffinity(stages ...string) LifeStageAffinity {
	return LifeStageAffinity{Set: true, Stages: stages}
}

// Affinity decodes the life stage column. Anything that is neither a string nor an
// array of strings is treated as generic.
func (q Question) Affinity() LifeStageAffinity {
	raw := bytes.TrimSpace(q.LifeStage)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return GenericAffinity()
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return SingleStageAffinity(single)
	}

	var stages []string
	if err := json.Unmarshal(raw, &stages); err == nil {
		if stages == nil {
			stages = []string{}
		}
		return MultiStageAffinity(stages...)
	}

	return GenericAffinity()
}

// SetAffinity encodes a normalized affinity back into the column representation
func (q *Question) SetAffinity(a LifeStageAffinity) {
	switch {
	case !a.Set:
		q.LifeStage = nil
	case a.Single && len(a.Stages) == 1:
		q.LifeStage, _ = json.Marshal(a.Stages[0])
	default:
		stages := a.Stages
		if stages == nil {
			stages = []string{}
		}
		q.LifeStage, _ = json.Marshal(stages)
	}
}

// DisplayText picks the Spanish variant for the "es" locale when one exists
func (q Question) DisplayText(locale string) string {
	if locale == LocaleES && q.TextES != nil && *q.TextES != "" {
		return *q.TextES
	}
	return q.Text
}

const (
	LocaleEN = "en"
	LocaleES = "es"
)
