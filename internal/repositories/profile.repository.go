package repositories

import (
	"context"
	"errors"

	"journal/internal/constants"
	"journal/internal/database"
	. "journal/internal/models"
	"journal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	// GetByUserID returns nil without error when the user has no profile row
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*Profile, error)
}

type profileRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewProfileRepository(cache database.CacheClient) ProfileRepository {
	return &profileRepository{
		cache: cache,
		log:   logger.New("profileRepository"),
	}
}

func (r *profileRepository) GetByUserID(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
) (*Profile, error) {
	log := r.log.Function("GetByUserID")

	if r.cache != nil {
		var cached Profile
		found, err := database.NewCacheBuilder(r.cache, userID).
			WithContext(ctx).
			WithHash(constants.ProfileCachePrefix).
			Get(&cached)
		if err != nil {
			log.Warn("failed to read profile from cache", "userID", userID, "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	profile, err := gorm.G[Profile](tx).Where("id = ?", userID).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get profile", err, "userID", userID)
	}

	// missing profiles are not cached so a newly created row is picked up immediately
	if r.cache != nil {
		err = database.NewCacheBuilder(r.cache, userID).
			WithContext(ctx).
			WithHash(constants.ProfileCachePrefix).
			WithStruct(profile).
			WithTTL(constants.ProfileCacheExpiry).
			Set()
		if err != nil {
			log.Warn("failed to cache profile", "userID", userID, "error", err)
		}
	}

	return &profile, nil
}
