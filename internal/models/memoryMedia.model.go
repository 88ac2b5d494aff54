package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindImage MediaKind = "image"
)

type TranscriptStatus string

const (
	TranscriptStatusNone       TranscriptStatus = "none"
	TranscriptStatusPending    TranscriptStatus = "pending"
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusCompleted  TranscriptStatus = "completed"
	TranscriptStatusFailed     TranscriptStatus = "failed"
)

// RequestedTranscriptStatuses are the states that count as a transcription request
// for monthly usage, whatever the outcome.
var RequestedTranscriptStatuses = []TranscriptStatus{
	TranscriptStatusPending,
	TranscriptStatusProcessing,
	TranscriptStatusCompleted,
	TranscriptStatusFailed,
}

var validTranscriptTransitions = map[TranscriptStatus][]TranscriptStatus{
	TranscriptStatusNone:       {TranscriptStatusPending},
	TranscriptStatusPending:    {TranscriptStatusProcessing, TranscriptStatusFailed},
	TranscriptStatusProcessing: {TranscriptStatusCompleted, TranscriptStatusFailed},
	TranscriptStatusFailed:     {TranscriptStatusPending},
	TranscriptStatusCompleted:  {},
}

// CanTransitionTo reports whether the transcription lifecycle allows moving to next
func (s TranscriptStatus) CanTransitionTo(next TranscriptStatus) bool {
	allowed, ok := validTranscriptTransitions[s]
	if !ok {
		return false
	}
	return slices.Contains(allowed, next)
}

const (
	DefaultAudioMimeType     = "audio/webm"
	MaxTranscriptErrorLength = 400
)

type MemoryMedia struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MemoryID            uuid.UUID        `gorm:"type:uuid;not null;index"                       json:"memoryId"`
	UserID              uuid.UUID        `gorm:"type:uuid;not null;index"                       json:"userId"`
	Kind                MediaKind        `gorm:"type:text;not null"                             json:"kind"`
	StorageBucket       string           `gorm:"type:text;not null"                             json:"storageBucket"`
	StoragePath         string           `gorm:"type:text;not null"                             json:"storagePath"`
	MimeType            *string          `gorm:"type:text"                                      json:"mimeType"`
	TranscriptStatus    TranscriptStatus `gorm:"type:text;not null;default:'none'"              json:"transcriptStatus"`
	TranscriptLanguage  *string          `gorm:"type:text"                                      json:"transcriptLanguage"`
	TranscriptAttempts  int              `gorm:"not null;default:0"                             json:"transcriptAttempts"`
	Transcript          *string          `gorm:"type:text"                                      json:"transcript"`
	TranscriptError     *string          `gorm:"type:text"                                      json:"transcriptError"`
	TranscriptUpdatedAt *time.Time       `                                                      json:"transcriptUpdatedAt"`
	CreatedAt           time.Time        `gorm:"autoCreateTime"                                 json:"createdAt"`
}

func (MemoryMedia) TableName() string {
	return "memory_media"
}

func (m *MemoryMedia) BeforeCreate(tx *gorm.DB) error {
	if m.TranscriptStatus == "" {
		m.TranscriptStatus = TranscriptStatusNone
	}
	return nil
}

// ResolvedMimeType falls back to webm, the recorder's default container
func (m *MemoryMedia) ResolvedMimeType() string {
	if m.MimeType == nil || *m.MimeType == "" {
		return DefaultAudioMimeType
	}
	return *m.MimeType
}

func (m *MemoryMedia) ResolvedLanguage(fallback string) string {
	if m.TranscriptLanguage == nil || *m.TranscriptLanguage == "" {
		return fallback
	}
	return *m.TranscriptLanguage
}

// TruncateTranscriptError bounds a failure message to what the column is meant to hold
func TruncateTranscriptError(message string) string {
	runes := []rune(message)
	if len(runes) <= MaxTranscriptErrorLength {
		return message
	}
	return string(runes[:MaxTranscriptErrorLength])
}
