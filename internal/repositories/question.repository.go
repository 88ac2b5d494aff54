package repositories

import (
	"context"
	"errors"

	. "journal/internal/models"
	"journal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	GetActive(ctx context.Context, tx *gorm.DB) ([]*Question, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Question, error)
	Create(ctx context.Context, tx *gorm.DB, question *Question) error
}

type questionRepository struct {
	log logger.Logger
}

func NewQuestionRepository() QuestionRepository {
	return &questionRepository{
		log: logger.New("questionRepository"),
	}
}

// GetActive returns the active catalog, newest first. Rows sharing a creation time are
// ordered by id so the selector always sees the same sequence.
func (r *questionRepository) GetActive(ctx context.Context, tx *gorm.DB) ([]*Question, error) {
	log := r.log.Function("GetActive")

	questions, err := gorm.G[Question](tx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to get active questions", err)
	}

	result := make([]*Question, len(questions))
	for i := range questions {
		result[i] = &questions[i]
	}
	return result, nil
}

func (r *questionRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Question, error) {
	log := r.log.Function("GetByID")

	question, err := gorm.G[Question](tx).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, log.Err("failed to get question", err, "questionID", id)
	}

	return &question, nil
}

func (r *questionRepository) Create(ctx context.Context, tx *gorm.DB, question *Question) error {
	log := r.log.Function("Create")

	if err := gorm.G[Question](tx).Create(ctx, question); err != nil {
		return log.Err("failed to create question", err)
	}

	return nil
}
