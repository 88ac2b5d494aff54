package repositories

import (
	"context"
	"time"

	. "journal/internal/models"
	"journal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryMediaRepository owns every transcription state transition. Each transition is a
// single conditional UPDATE whose WHERE clause encodes both ownership and the allowed
// source state, so callers learn the outcome from the affected-row count alone.
type MemoryMediaRepository interface {
	QueueTranscription(
		ctx context.Context,
		tx *gorm.DB,
		memoryID uuid.UUID,
		userID uuid.UUID,
		language string,
	) (int64, error)
	RetryTranscription(
		ctx context.Context,
		tx *gorm.DB,
		memoryID uuid.UUID,
		userID uuid.UUID,
	) (int64, error)
	GetPendingAudio(ctx context.Context, tx *gorm.DB, limit int) ([]*MemoryMedia, error)
	Claim(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID) (bool, error)
	// RejectPending reports false when the row was no longer pending
	RejectPending(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID, reason string) (bool, error)
	Complete(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID, transcript string) error
	Fail(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID, reason string) error
	CountTranscriptionRequestsSince(
		ctx context.Context,
		tx *gorm.DB,
		userID uuid.UUID,
		since time.Time,
	) (int64, error)
	GetByMemoryID(
		ctx context.Context,
		tx *gorm.DB,
		memoryID uuid.UUID,
		userID uuid.UUID,
	) ([]*MemoryMedia, error)
}

type memoryMediaRepository struct {
	log logger.Logger
	now func() time.Time
}

func NewMemoryMediaRepository() MemoryMediaRepository {
	return &memoryMediaRepository{
		log: logger.New("memoryMediaRepository"),
		now: time.Now,
	}
}

func (r *memoryMediaRepository) audioOwnedBy(
	ctx context.Context,
	tx *gorm.DB,
	memoryID uuid.UUID,
	userID uuid.UUID,
) *gorm.DB {
	return tx.WithContext(ctx).
		Model(&MemoryMedia{}).
		Where("memory_id = ? AND user_id = ? AND kind = ?", memoryID, userID, MediaKindAudio)
}

func (r *memoryMediaRepository) QueueTranscription(
	ctx context.Context,
	tx *gorm.DB,
	memoryID uuid.UUID,
	userID uuid.UUID,
	language string,
) (int64, error) {
	log := r.log.Function("QueueTranscription")

	result := r.audioOwnedBy(ctx, tx, memoryID, userID).
		Where("transcript_status IN ?", []TranscriptStatus{TranscriptStatusNone, TranscriptStatusPending}).
		Updates(map[string]any{
			"transcript_status":     TranscriptStatusPending,
			"transcript_language":   language,
			"transcript_error":      nil,
			"transcript_updated_at": r.now().UTC(),
		})
	if result.Error != nil {
		return 0, log.Err("failed to queue transcription", result.Error, "memoryID", memoryID)
	}

	return result.RowsAffected, nil
}

func (r *memoryMediaRepository) RetryTranscription(
	ctx context.Context,
	tx *gorm.DB,
	memoryID uuid.UUID,
	userID uuid.UUID,
) (int64, error) {
	log := r.log.Function("RetryTranscription")

	result := r.audioOwnedBy(ctx, tx, memoryID, userID).
		Where("transcript_status = ?", TranscriptStatusFailed).
		Updates(map[string]any{
			"transcript_status":     TranscriptStatusPending,
			"transcript_error":      nil,
			"transcript_updated_at": r.now().UTC(),
		})
	if result.Error != nil {
		return 0, log.Err("failed to retry transcription", result.Error, "memoryID", memoryID)
	}

	return result.RowsAffected, nil
}

// GetPendingAudio returns up to limit pending audio rows, oldest first
func (r *memoryMediaRepository) GetPendingAudio(
	ctx context.Context,
	tx *gorm.DB,
	limit int,
) ([]*MemoryMedia, error) {
	log := r.log.Function("GetPendingAudio")

	var media []*MemoryMedia
	err := tx.WithContext(ctx).
		Where("transcript_status = ? AND kind = ?", TranscriptStatusPending, MediaKindAudio).
		Order("created_at ASC").
		Limit(limit).
		Find(&media).Error
	if err != nil {
		return nil, log.Err("failed to fetch pending audio", err, "limit", limit)
	}

	return media, nil
}

// Claim moves a row from pending to processing and counts the attempt. It reports
// false when another worker got there first.
func (r *memoryMediaRepository) Claim(
	ctx context.Context,
	tx *gorm.DB,
	mediaID uuid.UUID,
) (bool, error) {
	log := r.log.Function("Claim")

	result := tx.WithContext(ctx).
		Model(&MemoryMedia{}).
		Where("id = ? AND transcript_status = ?", mediaID, TranscriptStatusPending).
		Updates(map[string]any{
			"transcript_status":     TranscriptStatusProcessing,
			"transcript_attempts":   gorm.Expr("transcript_attempts + 1"),
			"transcript_updated_at": r.now().UTC(),
		})
	if result.Error != nil {
		return false, log.Err("failed to claim media", result.Error, "mediaID", mediaID)
	}

	return result.RowsAffected == 1, nil
}

// RejectPending fails a pending row without processing it, still counting the attempt
func (r *memoryMediaRepository) RejectPending(
	ctx context.Context,
	tx *gorm.DB,
	mediaID uuid.UUID,
	reason string,
) (bool, error) {
	log := r.log.Function("RejectPending")

	result := tx.WithContext(ctx).
		Model(&MemoryMedia{}).
		Where("id = ? AND transcript_status = ?", mediaID, TranscriptStatusPending).
		Updates(map[string]any{
			"transcript_status":     TranscriptStatusFailed,
			"transcript_attempts":   gorm.Expr("transcript_attempts + 1"),
			"transcript_error":      TruncateTranscriptError(reason),
			"transcript_updated_at": r.now().UTC(),
		})
	if result.Error != nil {
		return false, log.Err("failed to reject pending media", result.Error, "mediaID", mediaID)
	}

	return result.RowsAffected == 1, nil
}

func (r *memoryMediaRepository) Complete(
	ctx context.Context,
	tx *gorm.DB,
	mediaID uuid.UUID,
	transcript string,
) error {
	log := r.log.Function("Complete")

	err := tx.WithContext(ctx).
		Model(&MemoryMedia{}).
		Where("id = ? AND transcript_status = ?", mediaID, TranscriptStatusProcessing).
		Updates(map[string]any{
			"transcript_status":     TranscriptStatusCompleted,
			"transcript":            transcript,
			"transcript_error":      nil,
			"transcript_updated_at": r.now().UTC(),
		}).Error
	if err != nil {
		return log.Err("failed to complete transcription", err, "mediaID", mediaID)
	}

	return nil
}

func (r *memoryMediaRepository) Fail(
	ctx context.Context,
	tx *gorm.DB,
	mediaID uuid.UUID,
	reason string,
) error {
	log := r.log.Function("Fail")

	err := tx.WithContext(ctx).
		Model(&MemoryMedia{}).
		Where("id = ? AND transcript_status = ?", mediaID, TranscriptStatusProcessing).
		Updates(map[string]any{
			"transcript_status":     TranscriptStatusFailed,
			"transcript_error":      TruncateTranscriptError(reason),
			"transcript_updated_at": r.now().UTC(),
		}).Error
	if err != nil {
		return log.Err("failed to mark transcription failed", err, "mediaID", mediaID)
	}

	return nil
}

// CountTranscriptionRequestsSince counts audio rows whose transcription was requested,
// whatever the outcome, created at or after since.
func (r *memoryMediaRepository) CountTranscriptionRequestsSince(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	since time.Time,
) (int64, error) {
	log := r.log.Function("CountTranscriptionRequestsSince")

	var count int64
	err := tx.WithContext(ctx).
		Model(&MemoryMedia{}).
		Where("user_id = ? AND kind = ?", userID, MediaKindAudio).
		Where("transcript_status IN ?", RequestedTranscriptStatuses).
		Where("created_at >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, log.Err("failed to count transcription requests", err, "userID", userID)
	}

	return count, nil
}

func (r *memoryMediaRepository) GetByMemoryID(
	ctx context.Context,
	tx *gorm.DB,
	memoryID uuid.UUID,
	userID uuid.UUID,
) ([]*MemoryMedia, error) {
	log := r.log.Function("GetByMemoryID")

	var media []*MemoryMedia
	err := tx.WithContext(ctx).
		Where("memory_id = ? AND user_id = ?", memoryID, userID).
		Order("created_at ASC").
		Find(&media).Error
	if err != nil {
		return nil, log.Err("failed to get memory media", err, "memoryID", memoryID)
	}

	return media, nil
}
