package services

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"

	"journal/internal/database"
	"journal/internal/events"
	"journal/internal/models"
	"journal/internal/repositories"
	"journal/pkg/logger"

	"github.com/google/uuid"
)

const (
	QueueErrInvalidMemoryID = "Invalid memory ID"
	QueueErrFeatureDisabled = "Your plan does not include transcription"
	QueueErrQuotaReached    = "You reached your monthly transcription limit"
	QueueErrFailed          = "Could not queue transcription"

	DefaultTranscriptionLanguage = "en"
)

var ErrInvalidMemoryID = errors.New("invalid memory id")

var (
	memoryIDPattern = regexp.MustCompile(
		`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`,
	)

	SupportedTranscriptionLanguages = []string{"en", "es", "pt", "fr", "de", "it", "zh", "ja", "ko", "ar"}
)

type QueueResult struct {
	Success bool   `json:"success"`
	Queued  bool   `json:"queued"`
	Error   string `json:"error,omitempty"`
}

func queueFailure(message string) QueueResult {
	return QueueResult{Success: false, Queued: false, Error: message}
}

// ResolveTranscriptionLanguage returns the preference when it is supported, else English
func ResolveTranscriptionLanguage(preference *string) string {
	if preference == nil {
		return DefaultTranscriptionLanguage
	}
	language := strings.ToLower(strings.TrimSpace(*preference))
	if slices.Contains(SupportedTranscriptionLanguages, language) {
		return language
	}
	return DefaultTranscriptionLanguage
}

func parseMemoryID(memoryID string) (uuid.UUID, bool) {
	if !memoryIDPattern.MatchString(memoryID) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(memoryID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// TranscriptionQueueService moves a user's audio into the pending state. Ownership is
// enforced by the update filter itself, so media the user does not own is a silent no-op.
type TranscriptionQueueService struct {
	db          database.DB
	repos       repositories.Repository
	featureGate *FeatureGateService
	eventBus    *events.EventBus
	log         logger.Logger
}

func NewTranscriptionQueueService(
	db database.DB,
	repos repositories.Repository,
	featureGate *FeatureGateService,
	eventBus *events.EventBus,
) *TranscriptionQueueService {
	return &TranscriptionQueueService{
		db:          db,
		repos:       repos,
		featureGate: featureGate,
		eventBus:    eventBus,
		log:         logger.New("transcriptionQueueService"),
	}
}

func (s *TranscriptionQueueService) Queue(
	ctx context.Context,
	memoryID string,
	userID uuid.UUID,
) QueueResult {
	log := s.log.Function("Queue")

	id, ok := parseMemoryID(memoryID)
	if !ok {
		return queueFailure(QueueErrInvalidMemoryID)
	}

	if denial, ok := s.checkFeature(ctx, userID); !ok {
		return denial
	}

	limit, err := s.featureGate.GetFeatureLimit(ctx, userID, models.FeatureTranscription)
	if err != nil {
		return queueFailure(QueueErrFailed)
	}
	if limit != nil {
		used, err := s.featureGate.GetMonthlyUsage(ctx, userID, models.FeatureTranscription)
		if err != nil {
			return queueFailure(QueueErrFailed)
		}
		if QuotaExceeded(limit, used) {
			log.Info("Monthly transcription limit reached", "userID", userID, "limit", *limit, "used", used)
			return queueFailure(QueueErrQuotaReached)
		}
	}

	tx := s.db.SQLWithContext(ctx)
	profile, err := s.repos.Profile.GetByUserID(ctx, tx, userID)
	if err != nil {
		return queueFailure(QueueErrFailed)
	}
	var preference *string
	if profile != nil {
		preference = profile.TranscriptionLanguage
	}
	language := ResolveTranscriptionLanguage(preference)

	rows, err := s.repos.MemoryMedia.QueueTranscription(ctx, tx, id, userID, language)
	if err != nil {
		return queueFailure(QueueErrFailed)
	}

	return s.queued(id, userID, rows)
}

// Retry re-queues a failed transcription. Media in any other state is left untouched.
func (s *TranscriptionQueueService) Retry(
	ctx context.Context,
	memoryID string,
	userID uuid.UUID,
) QueueResult {
	id, ok := parseMemoryID(memoryID)
	if !ok {
		return queueFailure(QueueErrInvalidMemoryID)
	}

	if denial, ok := s.checkFeature(ctx, userID); !ok {
		return denial
	}

	rows, err := s.repos.MemoryMedia.RetryTranscription(ctx, s.db.SQLWithContext(ctx), id, userID)
	if err != nil {
		return queueFailure(QueueErrFailed)
	}

	return s.queued(id, userID, rows)
}

// Status returns the caller's media rows for a memory, oldest first
func (s *TranscriptionQueueService) Status(
	ctx context.Context,
	memoryID string,
	userID uuid.UUID,
) ([]*models.MemoryMedia, error) {
	id, ok := parseMemoryID(memoryID)
	if !ok {
		return nil, ErrInvalidMemoryID
	}

	return s.repos.MemoryMedia.GetByMemoryID(ctx, s.db.SQLWithContext(ctx), id, userID)
}

func (s *TranscriptionQueueService) checkFeature(ctx context.Context, userID uuid.UUID) (QueueResult, bool) {
	enabled, err := s.featureGate.IsFeatureEnabled(ctx, userID, models.FeatureTranscription)
	if err != nil {
		return queueFailure(QueueErrFailed), false
	}
	if !enabled {
		return queueFailure(QueueErrFeatureDisabled), false
	}
	return QueueResult{}, true
}

func (s *TranscriptionQueueService) queued(memoryID uuid.UUID, userID uuid.UUID, rows int64) QueueResult {
	if rows == 0 {
		return QueueResult{Success: true, Queued: false}
	}

	s.log.Function("queued").Info("Transcription queued", "memoryID", memoryID, "userID", userID, "rows", rows)

	if s.eventBus != nil {
		err := s.eventBus.PublishTranscriptionStatus(
			userID,
			memoryID,
			nil,
			string(models.TranscriptStatusPending),
			"",
		)
		if err != nil {
			s.log.Warn("failed to publish transcription status", "memoryID", memoryID, "error", err)
		}
	}

	return QueueResult{Success: true, Queued: true}
}
