package seed

import (
	"context"
	"errors"

	. "journal/internal/models"
	"journal/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactor interface {
	Execute(ctx context.Context, fn func(context.Context, *gorm.DB) error) error
}

type seedQuestion struct {
	text     string
	textES   string
	affinity LifeStageAffinity
	tags     []string
}

func intPtr(i int) *int {
	return &i
}

var questions = []seedQuestion{
	{
		text:     "What is a small moment from today you want to remember?",
		textES:   "¿Qué pequeño momento de hoy quieres recordar?",
		affinity: GenericAffinity(),
		tags:     []string{"daily", "gratitude"},
	},
	{
		text:     "Who made you laugh recently, and what happened?",
		textES:   "¿Quién te hizo reír hace poco y qué pasó?",
		affinity: GenericAffinity(),
		tags:     []string{"people"},
	},
	{
		text:     "What is something you are looking forward to this year?",
		textES:   "¿Qué es algo que esperas con ilusión este año?",
		affinity: GenericAffinity(),
		tags:     []string{"future"},
	},
	{
		text:     "Which class or mentor has stuck with you the most?",
		textES:   "¿Qué clase o mentor te ha marcado más?",
		affinity: MultiStageAffinity(string(LifeStageTeen), string(LifeStageYoungAdult)),
		tags:     []string{"school"},
	},
	{
		text:     "What did your first apartment or first job teach you?",
		textES:   "¿Qué te enseñó tu primer apartamento o tu primer trabajo?",
		affinity: SingleStageAffinity(string(LifeStageYoungAdult)),
		tags:     []string{"milestones"},
	},
	{
		text:     "What routine keeps your week on track?",
		textES:   "¿Qué rutina mantiene tu semana en orden?",
		affinity: MultiStageAffinity(string(LifeStageAdult), string(LifeStageMidlife)),
		tags:     []string{"habits"},
	},
	{
		text:     "What advice would you give your younger self?",
		textES:   "¿Qué consejo le darías a tu yo más joven?",
		affinity: MultiStageAffinity(string(LifeStageMidlife), string(LifeStageSenior)),
		tags:     []string{"reflection"},
	},
	{
		text:     "Describe the house you grew up in.",
		textES:   "Describe la casa en la que creciste.",
		affinity: SingleStageAffinity(string(LifeStageSenior)),
		tags:     []string{"family", "places"},
	},
}

var planFeatures = []PlanFeature{
	{Plan: DefaultPlan, FeatureKey: FeatureTranscription, Enabled: true, LimitValue: intPtr(30)},
	{Plan: "pro", FeatureKey: FeatureTranscription, Enabled: true},
}

// Seed loads the starter question catalog and plan features. Rows that already exist
// are left alone, so it is safe to run repeatedly.
func Seed(ctx context.Context, transactions transactor, log logger.Logger) error {
	log = log.Function("Seed")
	log.Info("Seeding starter data")

	return transactions.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		created := 0
		for _, q := range questions {
			var existing Question
			err := tx.Where("text = ?", q.text).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return log.Err("failed to look up question", err, "text", q.text)
			}

			textES := q.textES
			question := Question{Text: q.text, TextES: &textES, Tags: q.tags, IsActive: true}
			question.SetAffinity(q.affinity)
			if err := tx.Create(&question).Error; err != nil {
				return log.Err("failed to create question", err, "text", q.text)
			}
			created++
		}
		log.Info("Seeded questions", "created", created, "catalog", len(questions))

		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&planFeatures).Error
		if err != nil {
			return log.Err("failed to seed plan features", err)
		}
		log.Info("Seeded plan features", "count", len(planFeatures))

		return nil
	})
}
