package services

import (
	"context"
	"errors"
	"time"

	"journal/internal/database"
	"journal/internal/events"
	. "journal/internal/models"
	"journal/internal/repositories"
	"journal/pkg/logger"
)

const (
	DefaultWorkerBatchSize = 5
	MinWorkerBatchSize     = 1
	MaxWorkerBatchSize     = 20

	WorkerErrFeatureDisabled = "Feature disabled for this user"

	// terminal writes outlive the run context so shutdown never strands a processing row
	terminalWriteTimeout = 10 * time.Second
)

var ErrWorkerNotConfigured = errors.New("transcription worker is missing speech-to-text or storage configuration")

type WorkerResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

type configurable interface {
	Configured() bool
}

func isConfigured(dep any) bool {
	if dep == nil {
		return false
	}
	if c, ok := dep.(configurable); ok {
		return c.Configured()
	}
	return true
}

// ClampBatchSize maps an unset size to the default and bounds the rest to [1, 20]
func ClampBatchSize(batchSize int) int {
	if batchSize == 0 {
		batchSize = DefaultWorkerBatchSize
	}
	return min(max(batchSize, MinWorkerBatchSize), MaxWorkerBatchSize)
}

// TranscriptionWorkerService drains pending audio. Each row is claimed with a guarded
// pending->processing update before any work, so overlapping runs never process the
// same row twice.
type TranscriptionWorkerService struct {
	db          database.DB
	repos       repositories.Repository
	featureGate *FeatureGateService
	stt         SpeechToText
	storage     ObjectStorage
	eventBus    *events.EventBus
	log         logger.Logger
}

func NewTranscriptionWorkerService(
	db database.DB,
	repos repositories.Repository,
	featureGate *FeatureGateService,
	stt SpeechToText,
	storage ObjectStorage,
	eventBus *events.EventBus,
) *TranscriptionWorkerService {
	return &TranscriptionWorkerService{
		db:          db,
		repos:       repos,
		featureGate: featureGate,
		stt:         stt,
		storage:     storage,
		eventBus:    eventBus,
		log:         logger.New("transcriptionWorkerService"),
	}
}

// Run processes one batch. Only missing configuration or a failed batch fetch is
// returned as an error; everything else is counted per row.
func (s *TranscriptionWorkerService) Run(ctx context.Context, batchSize int) (WorkerResult, error) {
	log := s.log.Function("Run")
	result := WorkerResult{}

	if !isConfigured(s.stt) || !isConfigured(s.storage) {
		return result, log.Err("worker cannot run", ErrWorkerNotConfigured)
	}

	limit := ClampBatchSize(batchSize)
	pending, err := s.repos.MemoryMedia.GetPendingAudio(ctx, s.db.SQLWithContext(ctx), limit)
	if err != nil {
		return result, log.Err("failed to fetch pending transcriptions", err, "limit", limit)
	}

	if len(pending) == 0 {
		log.Debug("No pending transcriptions")
		return result, nil
	}

	for _, media := range pending {
		if ctx.Err() != nil {
			log.Warn("worker run cancelled", "processed", result.Processed, "failed", result.Failed)
			break
		}

		switch s.processOne(ctx, media) {
		case rowProcessed:
			result.Processed++
		case rowFailed:
			result.Failed++
		}
	}

	log.Info("Transcription batch finished", "batch", len(pending), "processed", result.Processed, "failed", result.Failed)
	return result, nil
}

type rowOutcome int

const (
	rowSkipped rowOutcome = iota
	rowProcessed
	rowFailed
)

func (s *TranscriptionWorkerService) processOne(ctx context.Context, media *MemoryMedia) rowOutcome {
	log := s.log.Function("processOne").With("mediaID", media.ID, "userID", media.UserID)
	tx := s.db.SQLWithContext(ctx)

	enabled, err := s.featureGate.IsFeatureEnabled(ctx, media.UserID, FeatureTranscription)
	if err != nil {
		log.Er("failed to check transcription feature", err)
		return rowFailed
	}
	if !enabled {
		rejected, err := s.repos.MemoryMedia.RejectPending(ctx, tx, media.ID, WorkerErrFeatureDisabled)
		if err != nil {
			return rowFailed
		}
		if !rejected {
			log.Debug("media left pending before rejection")
			return rowSkipped
		}
		s.publish(media, TranscriptStatusFailed, WorkerErrFeatureDisabled)
		return rowFailed
	}

	claimed, err := s.repos.MemoryMedia.Claim(ctx, tx, media.ID)
	if err != nil {
		return rowFailed
	}
	if !claimed {
		log.Debug("media already claimed by another run")
		return rowSkipped
	}

	transcript, err := s.transcribe(ctx, media)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalWriteTimeout)
	defer cancel()
	writeTx := s.db.SQLWithContext(writeCtx)

	if err == nil {
		err = s.repos.MemoryMedia.Complete(writeCtx, writeTx, media.ID, transcript)
	}
	if err != nil {
		message := TruncateTranscriptError(err.Error())
		log.Warn("transcription failed", "attempt", media.TranscriptAttempts+1, "error", message)
		if failErr := s.repos.MemoryMedia.Fail(writeCtx, writeTx, media.ID, message); failErr != nil {
			log.Er("failed to record transcription failure", failErr)
		}
		s.publish(media, TranscriptStatusFailed, message)
		return rowFailed
	}

	s.publish(media, TranscriptStatusCompleted, "")
	return rowProcessed
}

// transcribe downloads the audio once and hands it to the speech-to-text client,
// which owns the retry policy.
func (s *TranscriptionWorkerService) transcribe(ctx context.Context, media *MemoryMedia) (string, error) {
	audio, err := s.storage.Download(ctx, media.StorageBucket, media.StoragePath)
	if err != nil {
		return "", err
	}

	return s.stt.Transcribe(
		ctx,
		audio,
		media.ResolvedMimeType(),
		media.ResolvedLanguage(DefaultTranscriptionLanguage),
	)
}

func (s *TranscriptionWorkerService) publish(media *MemoryMedia, status TranscriptStatus, message string) {
	if s.eventBus == nil {
		return
	}

	mediaID := media.ID
	err := s.eventBus.PublishTranscriptionStatus(media.UserID, media.MemoryID, &mediaID, string(status), message)
	if err != nil {
		s.log.Warn("failed to publish transcription status", "mediaID", media.ID, "error", err)
	}
}
