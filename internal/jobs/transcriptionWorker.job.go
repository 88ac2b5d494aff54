package jobs

import (
	"context"

	"journal/internal/services"
	"journal/pkg/logger"
)

type transcriptionRunner interface {
	Run(ctx context.Context, batchSize int) (services.WorkerResult, error)
}

type TranscriptionWorkerJob struct {
	worker    transcriptionRunner
	batchSize int
	log       logger.Logger
	schedule  services.Schedule
}

func NewTranscriptionWorkerJob(
	worker transcriptionRunner,
	batchSize int,
	schedule services.Schedule,
) *TranscriptionWorkerJob {
	log := logger.New("transcriptionWorkerJob")
	log.Info("Creating new transcription worker job", "schedule", schedule, "batchSize", batchSize)

	return &TranscriptionWorkerJob{
		worker:    worker,
		batchSize: batchSize,
		log:       log,
		schedule:  schedule,
	}
}

func (j *TranscriptionWorkerJob) Name() string {
	return "TranscriptionWorker"
}

func (j *TranscriptionWorkerJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	result, err := j.worker.Run(ctx, j.batchSize)
	if err != nil {
		return log.Err("transcription worker run failed", err)
	}

	if result.Processed > 0 || result.Failed > 0 {
		log.Info("Transcription worker run completed", "processed", result.Processed, "failed", result.Failed)
	}
	return nil
}

func (j *TranscriptionWorkerJob) Schedule() services.Schedule {
	return j.schedule
}
