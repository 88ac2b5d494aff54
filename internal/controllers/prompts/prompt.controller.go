package promptController

import (
	"context"
	"errors"
	"strings"
	"time"

	. "journal/internal/models"
	"journal/internal/services"
	"journal/pkg/logger"

	"github.com/google/uuid"
)

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

type PromptControllerInterface interface {
	GetDaily(ctx context.Context, userID uuid.UUID, date string, locale string) (services.PromptResult, error)
	AssignNext(ctx context.Context, userID uuid.UUID, date string, locale string) (services.PromptResult, error)
}

type PromptController struct {
	dailyPrompt *services.DailyPromptService
	log         logger.Logger
	now         func() time.Time
}

func New(services services.Service) PromptControllerInterface {
	return &PromptController{
		dailyPrompt: services.DailyPrompt,
		log:         logger.New("promptController"),
		now:         time.Now,
	}
}

// parseDate reads a calendar date, defaulting to today in UTC
func parseDate(date string, now time.Time) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return ParseISODate(ISODate(now))
	}

	parsed, err := ParseISODate(date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// resolveLocale maps any Spanish tag to "es" and everything else to "en"
func resolveLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == LocaleES || strings.HasPrefix(locale, LocaleES+"-") || strings.HasPrefix(locale, LocaleES+"_") {
		return LocaleES
	}
	return LocaleEN
}

func (c *PromptController) GetDaily(
	ctx context.Context,
	userID uuid.UUID,
	date string,
	locale string,
) (services.PromptResult, error) {
	day, err := parseDate(date, c.now())
	if err != nil {
		c.log.TraceFromContext(ctx).Function("GetDaily").Debug("Rejected date", "date", date)
		return services.PromptResult{}, err
	}

	return c.dailyPrompt.GetOrAssign(ctx, userID, day, resolveLocale(locale)), nil
}

func (c *PromptController) AssignNext(
	ctx context.Context,
	userID uuid.UUID,
	date string,
	locale string,
) (services.PromptResult, error) {
	day, err := parseDate(date, c.now())
	if err != nil {
		c.log.TraceFromContext(ctx).Function("AssignNext").Debug("Rejected date", "date", date)
		return services.PromptResult{}, err
	}

	return c.dailyPrompt.AssignNext(ctx, userID, day, resolveLocale(locale)), nil
}
