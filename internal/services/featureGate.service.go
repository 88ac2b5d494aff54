package services

import (
	"context"
	"time"

	"journal/internal/database"
	"journal/internal/models"
	"journal/internal/repositories"
	"journal/pkg/logger"

	"github.com/google/uuid"
)

type FeatureUsage struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
	Limit   *int   `json:"limit"`
	Used    int64  `json:"used"`
}

// FeatureGateService merges plan defaults with per-user overrides. An override field
// wins whenever it is set; a missing plan row means the feature is off.
type FeatureGateService struct {
	db    database.DB
	repos repositories.Repository
	log   logger.Logger
	now   func() time.Time
}

func NewFeatureGateService(db database.DB, repos repositories.Repository) *FeatureGateService {
	return &FeatureGateService{
		db:    db,
		repos: repos,
		log:   logger.New("featureGateService"),
		now:   time.Now,
	}
}

func (s *FeatureGateService) planFeature(
	ctx context.Context,
	userID uuid.UUID,
	featureKey string,
) (*models.PlanFeature, error) {
	tx := s.db.SQLWithContext(ctx)

	profile, err := s.repos.Profile.GetByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	return s.repos.Feature.GetPlanFeature(ctx, tx, profile.ResolvedPlan(), featureKey)
}

func (s *FeatureGateService) IsFeatureEnabled(
	ctx context.Context,
	userID uuid.UUID,
	featureKey string,
) (bool, error) {
	log := s.log.Function("IsFeatureEnabled")

	override, err := s.repos.Feature.GetUserOverride(ctx, s.db.SQLWithContext(ctx), userID, featureKey)
	if err != nil {
		return false, log.Err("failed to resolve feature override", err, "userID", userID, "feature", featureKey)
	}
	if override != nil && override.Enabled != nil {
		return *override.Enabled, nil
	}

	plan, err := s.planFeature(ctx, userID, featureKey)
	if err != nil {
		return false, log.Err("failed to resolve plan feature", err, "userID", userID, "feature", featureKey)
	}
	if plan == nil {
		return false, nil
	}

	return plan.Enabled, nil
}

// GetFeatureLimit returns the monthly limit for the feature, nil meaning unlimited
func (s *FeatureGateService) GetFeatureLimit(
	ctx context.Context,
	userID uuid.UUID,
	featureKey string,
) (*int, error) {
	log := s.log.Function("GetFeatureLimit")

	override, err := s.repos.Feature.GetUserOverride(ctx, s.db.SQLWithContext(ctx), userID, featureKey)
	if err != nil {
		return nil, log.Err("failed to resolve feature override", err, "userID", userID, "feature", featureKey)
	}
	if override != nil && override.LimitValue != nil {
		return override.LimitValue, nil
	}

	plan, err := s.planFeature(ctx, userID, featureKey)
	if err != nil {
		return nil, log.Err("failed to resolve plan feature", err, "userID", userID, "feature", featureKey)
	}
	if plan == nil {
		return nil, nil
	}

	return plan.LimitValue, nil
}

// GetMonthlyUsage counts this calendar month's (UTC) usage of the feature. Only
// transcription is metered. Every requested transcription counts, failed ones included.
func (s *FeatureGateService) GetMonthlyUsage(
	ctx context.Context,
	userID uuid.UUID,
	featureKey string,
) (int64, error) {
	if featureKey != models.FeatureTranscription {
		return 0, nil
	}

	count, err := s.repos.MemoryMedia.CountTranscriptionRequestsSince(
		ctx,
		s.db.SQLWithContext(ctx),
		userID,
		models.StartOfMonthUTC(s.now()),
	)
	if err != nil {
		return 0, s.log.Function("GetMonthlyUsage").Err("failed to count monthly usage", err, "userID", userID)
	}

	return count, nil
}

// QuotaExceeded reports whether usage has reached a non-nil limit
func QuotaExceeded(limit *int, used int64) bool {
	return limit != nil && used >= int64(*limit)
}

func (s *FeatureGateService) GetUsage(
	ctx context.Context,
	userID uuid.UUID,
	featureKey string,
) (FeatureUsage, error) {
	enabled, err := s.IsFeatureEnabled(ctx, userID, featureKey)
	if err != nil {
		return FeatureUsage{}, err
	}

	limit, err := s.GetFeatureLimit(ctx, userID, featureKey)
	if err != nil {
		return FeatureUsage{}, err
	}

	used, err := s.GetMonthlyUsage(ctx, userID, featureKey)
	if err != nil {
		return FeatureUsage{}, err
	}

	return FeatureUsage{
		Feature: featureKey,
		Enabled: enabled,
		Limit:   limit,
		Used:    used,
	}, nil
}
