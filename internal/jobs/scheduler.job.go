package jobs

import (
	"journal/config"
	"journal/internal/services"
	"journal/pkg/logger"
)

const (
	EveryMinute = services.EveryMinute
	Hourly      = services.Hourly
	Daily       = services.Daily
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	log.Info("Registering jobs")

	transcriptionJob := NewTranscriptionWorkerJob(
		services.TranscriptionWorker,
		config.WorkerBatchSize,
		EveryMinute,
	)
	if err := schedulerService.AddJob(transcriptionJob); err != nil {
		return log.Err("failed to register transcription worker job", err)
	}
	log.Info("Registered transcription worker job", "schedule", "every minute")

	return nil
}
