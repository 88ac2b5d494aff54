package services

import (
	"context"
	"testing"

	"journal/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionFeedbackService_SubmitAndGet(t *testing.T) {
	fakes := newFakeRepos()
	service := NewQuestionFeedbackService(newTestDatabase(t), fakes.repository())
	ctx := context.Background()
	userID, questionID := uuid.New(), uuid.New()

	rating, err := service.Get(ctx, userID, questionID)
	require.NoError(t, err)
	assert.Nil(t, rating)

	up := models.FeedbackRatingUp
	require.NoError(t, service.Submit(ctx, userID, questionID, &up))
	rating, err = service.Get(ctx, userID, questionID)
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, models.FeedbackRatingUp, *rating)

	down := models.FeedbackRatingDown
	require.NoError(t, service.Submit(ctx, userID, questionID, &down))
	rating, err = service.Get(ctx, userID, questionID)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackRatingDown, *rating)

	require.NoError(t, service.Submit(ctx, userID, questionID, nil))
	rating, err = service.Get(ctx, userID, questionID)
	require.NoError(t, err)
	assert.Nil(t, rating)
}

func TestQuestionFeedbackService_InvalidRating(t *testing.T) {
	fakes := newFakeRepos()
	service := NewQuestionFeedbackService(newTestDatabase(t), fakes.repository())
	userID, questionID := uuid.New(), uuid.New()

	meh := models.FeedbackRating("meh")
	err := service.Submit(context.Background(), userID, questionID, &meh)

	assert.ErrorIs(t, err, ErrInvalidFeedbackRating)
	rating, err := service.Get(context.Background(), userID, questionID)
	require.NoError(t, err)
	assert.Nil(t, rating)
}
