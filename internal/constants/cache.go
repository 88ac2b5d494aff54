package constants

import "time"

const (
	DailyPromptCachePrefix = "daily_prompt" // latest prompt by userID:date (CacheBuilder adds colon)
	DailyPromptCacheExpiry = 24 * time.Hour
	ProfileCachePrefix     = "profile"       // profile row by userID
	ProfileCacheExpiry     = 5 * time.Minute // profiles are edited outside this service
)
