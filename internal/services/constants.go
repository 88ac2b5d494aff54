package services

import "time"

// Outbound client defaults, overridable through config where noted
const (
	StorageTimeout           = 2 * time.Minute
	MaxAudioDownloadSize     = 50 * 1024 * 1024
	TranscriptionMaxAttempts = 3
	TranscriptionRetryStep   = time.Second // delay grows by one step per attempt
	maxErrorBodyBytes        = 2048
)
