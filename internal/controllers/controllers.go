package controllers

import (
	"journal/config"
	"journal/internal/services"

	featureController "journal/internal/controllers/features"
	feedbackController "journal/internal/controllers/feedback"
	promptController "journal/internal/controllers/prompts"
	transcriptionController "journal/internal/controllers/transcriptions"
)

type Controllers struct {
	Prompt        promptController.PromptControllerInterface
	Transcription transcriptionController.TranscriptionControllerInterface
	Feedback      feedbackController.FeedbackControllerInterface
	Feature       featureController.FeatureControllerInterface
}

func New(services services.Service, config config.Config) Controllers {
	return Controllers{
		Prompt:        promptController.New(services),
		Transcription: transcriptionController.New(services, config.WorkerBatchSize),
		Feedback:      feedbackController.New(services),
		Feature:       featureController.New(services),
	}
}
