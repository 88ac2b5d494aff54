package repositories

import (
	"context"
	"errors"

	. "journal/internal/models"
	"journal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FeatureRepository interface {
	GetPlanFeature(
		ctx context.Context,
		tx *gorm.DB,
		plan string,
		featureKey string,
	) (*PlanFeature, error)
	GetUserOverride(
		ctx context.Context,
		tx *gorm.DB,
		userID uuid.UUID,
		featureKey string,
	) (*UserFeatureOverride, error)
}

type featureRepository struct {
	log logger.Logger
}

func NewFeatureRepository() FeatureRepository {
	return &featureRepository{
		log: logger.New("featureRepository"),
	}
}

func (r *featureRepository) GetPlanFeature(
	ctx context.Context,
	tx *gorm.DB,
	plan string,
	featureKey string,
) (*PlanFeature, error) {
	log := r.log.Function("GetPlanFeature")

	feature, err := gorm.G[PlanFeature](tx).
		Where("plan = ? AND feature_key = ?", plan, featureKey).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get plan feature", err, "plan", plan, "featureKey", featureKey)
	}

	return &feature, nil
}

func (r *featureRepository) GetUserOverride(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	featureKey string,
) (*UserFeatureOverride, error) {
	log := r.log.Function("GetUserOverride")

	override, err := gorm.G[UserFeatureOverride](tx).
		Where("user_id = ? AND feature_key = ?", userID, featureKey).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err(
			"failed to get user feature override",
			err,
			"userID", userID,
			"featureKey", featureKey,
		)
	}

	return &override, nil
}
