package repositories

import (
	"context"
	"errors"

	. "journal/internal/models"
	"journal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionFeedbackRepository interface {
	Get(
		ctx context.Context,
		tx *gorm.DB,
		userID uuid.UUID,
		questionID uuid.UUID,
	) (*QuestionFeedback, error)
	Upsert(ctx context.Context, tx *gorm.DB, feedback *QuestionFeedback) error
	Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID, questionID uuid.UUID) error
}

type questionFeedbackRepository struct {
	log logger.Logger
}

func NewQuestionFeedbackRepository() QuestionFeedbackRepository {
	return &questionFeedbackRepository{
		log: logger.New("questionFeedbackRepository"),
	}
}

func (r *questionFeedbackRepository) Get(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	questionID uuid.UUID,
) (*QuestionFeedback, error) {
	log := r.log.Function("Get")

	feedback, err := gorm.G[QuestionFeedback](tx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err("failed to get question feedback", err, "questionID", questionID)
	}

	return &feedback, nil
}

func (r *questionFeedbackRepository) Upsert(
	ctx context.Context,
	tx *gorm.DB,
	feedback *QuestionFeedback,
) error {
	log := r.log.Function("Upsert")

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
		}).
		Create(feedback).Error
	if err != nil {
		return log.Err(
			"failed to upsert question feedback",
			err,
			"questionID", feedback.QuestionID,
			"rating", feedback.Rating,
		)
	}

	return nil
}

func (r *questionFeedbackRepository) Delete(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	questionID uuid.UUID,
) error {
	log := r.log.Function("Delete")

	_, err := gorm.G[QuestionFeedback](tx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(ctx)
	if err != nil {
		return log.Err("failed to delete question feedback", err, "questionID", questionID)
	}

	return nil
}
