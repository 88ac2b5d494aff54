package featureController

import (
	"context"
	"errors"
	"strings"

	"journal/internal/services"

	"github.com/google/uuid"
)

var ErrInvalidFeatureKey = errors.New("feature key is required")

type FeatureControllerInterface interface {
	GetUsage(ctx context.Context, userID uuid.UUID, featureKey string) (services.FeatureUsage, error)
}

type FeatureController struct {
	featureGate *services.FeatureGateService
}

func New(services services.Service) FeatureControllerInterface {
	return &FeatureController{featureGate: services.FeatureGate}
}

func (c *FeatureController) GetUsage(
	ctx context.Context,
	userID uuid.UUID,
	featureKey string,
) (services.FeatureUsage, error) {
	featureKey = strings.TrimSpace(featureKey)
	if featureKey == "" {
		return services.FeatureUsage{}, ErrInvalidFeatureKey
	}

	return c.featureGate.GetUsage(ctx, userID, featureKey)
}
