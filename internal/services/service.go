package services

import (
	"journal/config"
	"journal/internal/database"
	"journal/internal/events"
	"journal/internal/repositories"
)

type Service struct {
	Auth                *AuthService
	Transaction         *TransactionService
	Scheduler           *SchedulerService
	DailyPrompt         *DailyPromptService
	FeatureGate         *FeatureGateService
	TranscriptionQueue  *TranscriptionQueueService
	TranscriptionWorker *TranscriptionWorkerService
	QuestionFeedback    *QuestionFeedbackService
	SpeechToText        *GeminiClient
	Storage             *StorageClient
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	repos := repositories.New(db)

	featureGate := NewFeatureGateService(db, repos)
	speechToText := NewGeminiClient(config)
	storage := NewStorageClient(config)

	return Service{
		Auth:               NewAuthService(config),
		Transaction:        NewTransactionService(db),
		Scheduler:          NewSchedulerService(),
		DailyPrompt:        NewDailyPromptService(db, repos),
		FeatureGate:        featureGate,
		TranscriptionQueue: NewTranscriptionQueueService(db, repos, featureGate, eventBus),
		TranscriptionWorker: NewTranscriptionWorkerService(
			db,
			repos,
			featureGate,
			speechToText,
			storage,
			eventBus,
		),
		QuestionFeedback: NewQuestionFeedbackService(db, repos),
		SpeechToText:     speechToText,
		Storage:          storage,
	}, nil
}
