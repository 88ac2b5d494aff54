package repositories

import (
	"context"
	"errors"
	"fmt"

	"journal/internal/constants"
	"journal/internal/database"
	. "journal/internal/models"
	"journal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateDailyPrompt is returned by Create when the (user, date, index) slot is taken
var ErrDuplicateDailyPrompt = errors.New("daily prompt already assigned for this slot")

type DailyPromptRepository interface {
	GetLatest(
		ctx context.Context,
		tx *gorm.DB,
		userID uuid.UUID,
		isoDate string,
	) (*DailyPrompt, error)
	GetAllForDate(
		ctx context.Context,
		tx *gorm.DB,
		userID uuid.UUID,
		isoDate string,
	) ([]*DailyPrompt, error)
	Create(ctx context.Context, tx *gorm.DB, prompt *DailyPrompt) error
}

// promptCache holds the latest prompt per user and day. Fill only writes an absent
// key so a slow reader never overwrites a newer row that Put stored after an insert.
type promptCache interface {
	Get(ctx context.Context, key string, prompt *DailyPrompt) (bool, error)
	Fill(ctx context.Context, key string, prompt *DailyPrompt) error
	Put(ctx context.Context, key string, prompt *DailyPrompt) error
	Delete(ctx context.Context, key string) error
}

type valkeyPromptCache struct {
	client database.CacheClient
}

func (c valkeyPromptCache) builder(ctx context.Context, key string) *database.CacheBuilder {
	return database.NewCacheBuilder(c.client, key).
		WithContext(ctx).
		WithHash(constants.DailyPromptCachePrefix)
}

func (c valkeyPromptCache) Get(ctx context.Context, key string, prompt *DailyPrompt) (bool, error) {
	return c.builder(ctx, key).Get(prompt)
}

func (c valkeyPromptCache) Fill(ctx context.Context, key string, prompt *DailyPrompt) error {
	return c.builder(ctx, key).
		WithStruct(prompt).
		WithTTL(constants.DailyPromptCacheExpiry).
		IfAbsent().
		Set()
}

func (c valkeyPromptCache) Put(ctx context.Context, key string, prompt *DailyPrompt) error {
	return c.builder(ctx, key).
		WithStruct(prompt).
		WithTTL(constants.DailyPromptCacheExpiry).
		Set()
}

func (c valkeyPromptCache) Delete(ctx context.Context, key string) error {
	return c.builder(ctx, key).Delete()
}

type dailyPromptRepository struct {
	cache promptCache
	log   logger.Logger
}

func NewDailyPromptRepository(cache database.CacheClient) DailyPromptRepository {
	repo := &dailyPromptRepository{log: logger.New("dailyPromptRepository")}
	if cache != nil {
		repo.cache = valkeyPromptCache{client: cache}
	}
	return repo
}

func dailyPromptCacheKey(userID uuid.UUID, isoDate string) string {
	return fmt.Sprintf("%s:%s", userID, isoDate)
}

// GetLatest returns the highest-index prompt for the day with its question loaded,
// or nil when nothing has been assigned yet.
func (r *dailyPromptRepository) GetLatest(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	isoDate string,
) (*DailyPrompt, error) {
	log := r.log.Function("GetLatest")

	if r.cache != nil {
		var cached DailyPrompt
		found, err := r.cache.Get(ctx, dailyPromptCacheKey(userID, isoDate), &cached)
		if err != nil {
			log.Warn("failed to read daily prompt from cache", "userID", userID, "error", err)
		}
		if found && cached.Question != nil {
			return &cached, nil
		}
	}

	prompt, err := gorm.G[DailyPrompt](tx).
		Preload("Question", nil).
		Where("user_id = ? AND prompt_date = ?", userID, isoDate).
		Order("prompt_index DESC").
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get latest daily prompt", err, "userID", userID, "date", isoDate)
	}

	if r.cache != nil && prompt.Question != nil {
		if err := r.cache.Fill(ctx, dailyPromptCacheKey(userID, isoDate), &prompt); err != nil {
			log.Warn("failed to cache daily prompt", "userID", userID, "error", err)
		}
	}

	return &prompt, nil
}

func (r *dailyPromptRepository) GetAllForDate(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	isoDate string,
) ([]*DailyPrompt, error) {
	log := r.log.Function("GetAllForDate")

	prompts, err := gorm.G[DailyPrompt](tx).
		Where("user_id = ? AND prompt_date = ?", userID, isoDate).
		Order("prompt_index DESC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to get daily prompts", err, "userID", userID, "date", isoDate)
	}

	result := make([]*DailyPrompt, len(prompts))
	for i := range prompts {
		result[i] = &prompts[i]
	}
	return result, nil
}

func (r *dailyPromptRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	prompt *DailyPrompt,
) error {
	log := r.log.Function("Create")

	if prompt.Mode == "" {
		prompt.Mode = PromptModeHybrid
	}

	question := prompt.Question
	prompt.Question = nil
	err := gorm.G[DailyPrompt](tx).Create(ctx, prompt)
	prompt.Question = question
	if err != nil {
		if database.IsDuplicateKeyError(err) {
			log.Info(
				"daily prompt slot already taken",
				"userID", prompt.UserID,
				"date", ISODate(prompt.PromptDate),
				"index", prompt.PromptIndex,
			)
			return ErrDuplicateDailyPrompt
		}
		return log.Err(
			"failed to create daily prompt",
			err,
			"userID", prompt.UserID,
			"questionID", prompt.QuestionID,
			"index", prompt.PromptIndex,
		)
	}

	r.storeLatest(ctx, prompt)
	return nil
}

// storeLatest writes a freshly inserted prompt through to the cache. Without its
// question loaded the row cannot be served from cache, so the key is dropped instead.
func (r *dailyPromptRepository) storeLatest(ctx context.Context, prompt *DailyPrompt) {
	if r.cache == nil {
		return
	}

	key := dailyPromptCacheKey(prompt.UserID, ISODate(prompt.PromptDate))
	if prompt.Question != nil {
		err := r.cache.Put(ctx, key, prompt)
		if err == nil {
			return
		}
		r.log.Warn("failed to cache new daily prompt", "userID", prompt.UserID, "error", err)
	}

	if err := r.cache.Delete(ctx, key); err != nil {
		r.log.Warn("failed to clear daily prompt cache", "userID", prompt.UserID, "error", err)
	}
}
