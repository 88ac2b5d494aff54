package services

import (
	"context"
	"errors"

	"journal/internal/database"
	"journal/internal/models"
	"journal/internal/repositories"
	"journal/pkg/logger"

	"github.com/google/uuid"
)

var ErrInvalidFeedbackRating = errors.New("rating must be up, down or null")

type QuestionFeedbackService struct {
	db    database.DB
	repos repositories.Repository
	log   logger.Logger
}

func NewQuestionFeedbackService(db database.DB, repos repositories.Repository) *QuestionFeedbackService {
	return &QuestionFeedbackService{
		db:    db,
		repos: repos,
		log:   logger.New("questionFeedbackService"),
	}
}

// Submit records a thumbs up/down for a question. A nil rating clears it.
func (s *QuestionFeedbackService) Submit(
	ctx context.Context,
	userID uuid.UUID,
	questionID uuid.UUID,
	rating *models.FeedbackRating,
) error {
	tx := s.db.SQLWithContext(ctx)

	if rating == nil {
		return s.repos.QuestionFeedback.Delete(ctx, tx, userID, questionID)
	}
	if !rating.IsValid() {
		s.log.Function("Submit").Debug("Rejected feedback rating", "userID", userID, "rating", *rating)
		return ErrInvalidFeedbackRating
	}

	return s.repos.QuestionFeedback.Upsert(ctx, tx, &models.QuestionFeedback{
		UserID:     userID,
		QuestionID: questionID,
		Rating:     *rating,
	})
}

func (s *QuestionFeedbackService) Get(
	ctx context.Context,
	userID uuid.UUID,
	questionID uuid.UUID,
) (*models.FeedbackRating, error) {
	feedback, err := s.repos.QuestionFeedback.Get(ctx, s.db.SQLWithContext(ctx), userID, questionID)
	if err != nil || feedback == nil {
		return nil, err
	}

	return &feedback.Rating, nil
}
