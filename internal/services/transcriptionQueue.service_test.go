package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"journal/internal/events"
	"journal/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueueTestService(t *testing.T, fakes *fakeRepos, bus *events.EventBus) *TranscriptionQueueService {
	db := newTestDatabase(t)
	repos := fakes.repository()
	return NewTranscriptionQueueService(db, repos, NewFeatureGateService(db, repos), bus)
}

func audioWithStatus(userID uuid.UUID, status models.TranscriptStatus) *models.MemoryMedia {
	media := newPendingAudio(userID, time.Now())
	media.TranscriptStatus = status
	return media
}

func TestTranscriptionQueueService_Queue_InvalidMemoryID(t *testing.T) {
	fakes := newFakeRepos()
	fakes.enableTranscription("free", nil)
	service := newQueueTestService(t, fakes, nil)

	for _, id := range []string{"", "not-a-uuid", "12345678-1234-6234-8234-123456789012", "12345678-1234-4234-c234-123456789012"} {
		result := service.Queue(context.Background(), id, uuid.New())
		assert.Equal(t, QueueResult{Error: QueueErrInvalidMemoryID}, result, id)
	}
}

func TestTranscriptionQueueService_Queue_AcceptsUppercaseID(t *testing.T) {
	fakes := newFakeRepos()
	fakes.enableTranscription("free", nil)
	userID := uuid.New()
	media := audioWithStatus(userID, models.TranscriptStatusNone)
	fakes.media.media = []*models.MemoryMedia{media}

	result := newQueueTestService(t, fakes, nil).
		Queue(context.Background(), strings.ToUpper(media.MemoryID.String()), userID)

	assert.Equal(t, QueueResult{Success: true, Queued: true}, result)
}

func TestTranscriptionQueueService_Queue_FeatureDisabled(t *testing.T) {
	fakes := newFakeRepos()
	userID := uuid.New()
	media := audioWithStatus(userID, models.TranscriptStatusNone)
	fakes.media.media = []*models.MemoryMedia{media}

	result := newQueueTestService(t, fakes, nil).Queue(context.Background(), media.MemoryID.String(), userID)

	assert.Equal(t, QueueResult{Error: QueueErrFeatureDisabled}, result)
	assert.Equal(t, models.TranscriptStatusNone, fakes.media.get(media.ID).TranscriptStatus)
}

func TestTranscriptionQueueService_Queue_QuotaReached(t *testing.T) {
	fakes := newFakeRepos()
	fakes.enableTranscription("free", intPtr(5))
	fakes.media.usage = 5
	userID := uuid.New()
	media := audioWithStatus(userID, models.TranscriptStatusNone)
	fakes.media.media = []*models.MemoryMedia{media}

	result := newQueueTestService(t, fakes, nil).Queue(context.Background(), media.MemoryID.String(), userID)

	assert.Equal(t, QueueResult{Error: QueueErrQuotaReached}, result)
	assert.Equal(t, models.TranscriptStatusNone, fakes.media.get(media.ID).TranscriptStatus)
}

func TestTranscriptionQueueService_Queue_UnderQuota(t *testing.T) {
	fakes := newFakeRepos()
	fakes.enableTranscription("free", intPtr(5))
	fakes.media.usage = 4
	userID := uuid.New()
	media := audioWithStatus(userID, models.TranscriptStatusNone)
	fakes.media.media = []*models.MemoryMedia{media}

	result := newQueueTestService(t, fakes, nil).Queue(context.Background(), media.MemoryID.String(), userID)

	assert.Equal(t, QueueResult{Success: true, Queued: true}, result)
	stored := fakes.media.get(media.ID)
	assert.Equal(t, models.TranscriptStatusPending, stored.TranscriptStatus)
	require.NotNil(t, stored.TranscriptLanguage)
	assert.Equal(t, "en", *stored.TranscriptLanguage)
}

func TestTranscriptionQueueService_Queue_ResolvesLanguage(t *testing.T) {
	tests := []struct {
		name       string
		preference *string
		expected   string
	}{
		{"supported", strPtr("es"), "es"},
		{"mixed case", strPtr(" PT "), "pt"},
		{"unsupported", strPtr("xx"), "en"},
		{"unset", nil, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakes := newFakeRepos()
			fakes.enableTranscription("free", nil)
			userID := uuid.New()
			fakes.profiles.profiles[userID] = &models.Profile{ID: userID, TranscriptionLanguage: tt.preference}
			media := audioWithStatus(userID, models.TranscriptStatusNone)
			fakes.media.media = []*models.MemoryMedia{media}

			result := newQueueTestService(t, fakes, nil).Queue(context.Background(), media.MemoryID.String(), userID)

			require.True(t, result.Queued)
			assert.Equal(t, tt.expected, *fakes.media.get(media.ID).TranscriptLanguage)
		})
	}
}

func TestTranscriptionQueueService_Queue_NoOps(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(userID uuid.UUID) *models.MemoryMedia
		status models.TranscriptStatus
	}{
		{
			name: "someone else's media",
			setup: func(uuid.UUID) *models.MemoryMedia {
				return audioWithStatus(uuid.New(), models.TranscriptStatusNone)
			},
			status: models.TranscriptStatusNone,
		},
		{
			name: "image attachment",
			setup: func(userID uuid.UUID) *models.MemoryMedia {
				media := audioWithStatus(userID, models.TranscriptStatusNone)
				media.Kind = models.MediaKindImage
				return media
			},
			status: models.TranscriptStatusNone,
		},
		{
			name: "already processing",
			setup: func(userID uuid.UUID) *models.MemoryMedia {
				return audioWithStatus(userID, models.TranscriptStatusProcessing)
			},
			status: models.TranscriptStatusProcessing,
		},
		{
			name: "already completed",
			setup: func(userID uuid.UUID) *models.MemoryMedia {
				return audioWithStatus(userID, models.TranscriptStatusCompleted)
			},
			status: models.TranscriptStatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakes := newFakeRepos()
			fakes.enableTranscription("free", nil)
			userID := uuid.New()
			media := tt.setup(userID)
			fakes.media.media = []*models.MemoryMedia{media}

			result := newQueueTestService(t, fakes, nil).Queue(context.Background(), media.MemoryID.String(), userID)

			assert.Equal(t, QueueResult{Success: true, Queued: false}, result)
			assert.Equal(t, tt.status, fakes.media.get(media.ID).TranscriptStatus)
		})
	}
}

func TestTranscriptionQueueService_Queue_StoreFailure(t *testing.T) {
	fakes := newFakeRepos()
	fakes.features.err = errStore

	result := newQueueTestService(t, fakes, nil).Queue(context.Background(), uuid.NewString(), uuid.New())

	assert.Equal(t, QueueResult{Error: QueueErrFailed}, result)
}

func TestTranscriptionQueueService_Queue_PublishesPendingEvent(t *testing.T) {
	fakes := newFakeRepos()
	fakes.enableTranscription("free", nil)
	userID := uuid.New()
	media := audioWithStatus(userID, models.TranscriptStatusNone)
	fakes.media.media = []*models.MemoryMedia{media}

	bus := events.New(nil)
	defer func() { _ = bus.Close() }()
	received := make(chan events.Event, 1)
	require.NoError(t, bus.Subscribe(events.TRANSCRIPTION_CHANNEL, func(event events.Event) error {
		received <- event
		return nil
	}))

	result := newQueueTestService(t, fakes, bus).Queue(context.Background(), media.MemoryID.String(), userID)
	require.True(t, result.Queued)

	select {
	case event := <-received:
		assert.Equal(t, "pending", event.Data["status"])
		assert.Equal(t, media.MemoryID.String(), event.Data["memoryId"])
	case <-time.After(time.Second):
		t.Fatal("pending event not published")
	}
}

func TestTranscriptionQueueService_Retry(t *testing.T) {
	tests := []struct {
		name     string
		status   models.TranscriptStatus
		queued   bool
		expected models.TranscriptStatus
	}{
		{"failed is re-queued", models.TranscriptStatusFailed, true, models.TranscriptStatusPending},
		{"completed is untouched", models.TranscriptStatusCompleted, false, models.TranscriptStatusCompleted},
		{"processing is untouched", models.TranscriptStatusProcessing, false, models.TranscriptStatusProcessing},
		{"pending is untouched", models.TranscriptStatusPending, false, models.TranscriptStatusPending},
		{"never requested is untouched", models.TranscriptStatusNone, false, models.TranscriptStatusNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakes := newFakeRepos()
			fakes.enableTranscription("free", intPtr(1))
			fakes.media.usage = 1
			userID := uuid.New()
			media := audioWithStatus(userID, tt.status)
			media.TranscriptAttempts = 3
			media.TranscriptError = strPtr("previous failure")
			fakes.media.media = []*models.MemoryMedia{media}

			result := newQueueTestService(t, fakes, nil).Retry(context.Background(), media.MemoryID.String(), userID)

			assert.True(t, result.Success)
			assert.Equal(t, tt.queued, result.Queued)
			stored := fakes.media.get(media.ID)
			assert.Equal(t, tt.expected, stored.TranscriptStatus)
			assert.Equal(t, 3, stored.TranscriptAttempts)
			if tt.queued {
				assert.Nil(t, stored.TranscriptError)
			}
		})
	}
}

func TestTranscriptionQueueService_Retry_FeatureDisabled(t *testing.T) {
	fakes := newFakeRepos()
	userID := uuid.New()
	media := audioWithStatus(userID, models.TranscriptStatusFailed)
	fakes.media.media = []*models.MemoryMedia{media}

	result := newQueueTestService(t, fakes, nil).Retry(context.Background(), media.MemoryID.String(), userID)

	assert.Equal(t, QueueResult{Error: QueueErrFeatureDisabled}, result)
	assert.Equal(t, models.TranscriptStatusFailed, fakes.media.get(media.ID).TranscriptStatus)
}

func TestTranscriptionQueueService_Status(t *testing.T) {
	fakes := newFakeRepos()
	userID := uuid.New()
	mine := audioWithStatus(userID, models.TranscriptStatusCompleted)
	theirs := audioWithStatus(uuid.New(), models.TranscriptStatusPending)
	theirs.MemoryID = mine.MemoryID
	fakes.media.media = []*models.MemoryMedia{mine, theirs}
	service := newQueueTestService(t, fakes, nil)

	rows, err := service.Status(context.Background(), mine.MemoryID.String(), userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)

	_, err = service.Status(context.Background(), "nope", userID)
	assert.ErrorIs(t, err, ErrInvalidMemoryID)
}
