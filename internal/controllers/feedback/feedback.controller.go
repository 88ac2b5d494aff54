package feedbackController

import (
	"context"
	"errors"

	. "journal/internal/models"
	"journal/internal/services"

	"github.com/google/uuid"
)

var ErrInvalidQuestionID = errors.New("invalid question id")

type FeedbackRequest struct {
	Rating *string `json:"rating"`
}

type FeedbackResponse struct {
	QuestionID uuid.UUID       `json:"questionId"`
	Rating     *FeedbackRating `json:"rating"`
}

type FeedbackControllerInterface interface {
	Submit(ctx context.Context, userID uuid.UUID, questionID string, request FeedbackRequest) (FeedbackResponse, error)
	Get(ctx context.Context, userID uuid.UUID, questionID string) (FeedbackResponse, error)
}

type FeedbackController struct {
	feedback *services.QuestionFeedbackService
}

func New(services services.Service) FeedbackControllerInterface {
	return &FeedbackController{feedback: services.QuestionFeedback}
}

func parseQuestionID(questionID string) (uuid.UUID, error) {
	id, err := uuid.Parse(questionID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidQuestionID
	}
	return id, nil
}

func (c *FeedbackController) Submit(
	ctx context.Context,
	userID uuid.UUID,
	questionID string,
	request FeedbackRequest,
) (FeedbackResponse, error) {
	id, err := parseQuestionID(questionID)
	if err != nil {
		return FeedbackResponse{}, err
	}

	var rating *FeedbackRating
	if request.Rating != nil {
		value := FeedbackRating(*request.Rating)
		rating = &value
	}

	if err := c.feedback.Submit(ctx, userID, id, rating); err != nil {
		return FeedbackResponse{}, err
	}

	return FeedbackResponse{QuestionID: id, Rating: rating}, nil
}

func (c *FeedbackController) Get(
	ctx context.Context,
	userID uuid.UUID,
	questionID string,
) (FeedbackResponse, error) {
	id, err := parseQuestionID(questionID)
	if err != nil {
		return FeedbackResponse{}, err
	}

	rating, err := c.feedback.Get(ctx, userID, id)
	if err != nil {
		return FeedbackResponse{}, err
	}

	return FeedbackResponse{QuestionID: id, Rating: rating}, nil
}
