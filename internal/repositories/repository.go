package repositories

import (
	"journal/internal/database"
)

type Repository struct {
	Question         QuestionRepository
	DailyPrompt      DailyPromptRepository
	Profile          ProfileRepository
	Feature          FeatureRepository
	MemoryMedia      MemoryMediaRepository
	QuestionFeedback QuestionFeedbackRepository
}

func New(db database.DB) Repository {
	return Repository{
		Question:         NewQuestionRepository(),
		DailyPrompt:      NewDailyPromptRepository(db.Cache.User),
		Profile:          NewProfileRepository(db.Cache.User),
		Feature:          NewFeatureRepository(),
		MemoryMedia:      NewMemoryMediaRepository(),
		QuestionFeedback: NewQuestionFeedbackRepository(),
	}
}
