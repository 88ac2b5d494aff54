package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"journal/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDailyPromptTestService(t *testing.T, fakes *fakeRepos) *DailyPromptService {
	return NewDailyPromptService(newTestDatabase(t), fakes.repository())
}

var promptDate = time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

func TestDailyPromptService_GetOrAssign_SingleGenericQuestion(t *testing.T) {
	fakes := newFakeRepos()
	q1 := newQuestion("What made you smile today?", models.GenericAffinity())
	fakes.questions.questions = []*models.Question{q1}
	service := newDailyPromptTestService(t, fakes)
	userID := uuid.New()

	first := service.GetOrAssign(context.Background(), userID, promptDate, "en")

	assert.Equal(t, PromptStatusAssigned, first.Status)
	require.NotNil(t, first.QuestionID)
	assert.Equal(t, q1.ID, *first.QuestionID)
	assert.Equal(t, q1.Text, first.Text)
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, "2024-03-01", first.Date)

	second := service.GetOrAssign(context.Background(), userID, promptDate, "en")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fakes.prompts.count())
}

func TestDailyPromptService_GetOrAssign_NoQuestions(t *testing.T) {
	fakes := newFakeRepos()
	service := newDailyPromptTestService(t, fakes)

	result := service.GetOrAssign(context.Background(), uuid.New(), promptDate, "en")

	assert.Equal(t, PromptStatusNoQuestions, result.Status)
	assert.Nil(t, result.QuestionID)
	assert.Equal(t, 0, fakes.prompts.count())
}

func TestDailyPromptService_GetOrAssign_InactiveQuestionsIgnored(t *testing.T) {
	fakes := newFakeRepos()
	inactive := newQuestion("retired", models.GenericAffinity())
	inactive.IsActive = false
	fakes.questions.questions = []*models.Question{inactive}
	service := newDailyPromptTestService(t, fakes)

	result := service.GetOrAssign(context.Background(), uuid.New(), promptDate, "en")

	assert.Equal(t, PromptStatusNoQuestions, result.Status)
}

func TestDailyPromptService_GetOrAssign_DeterministicAcrossStores(t *testing.T) {
	catalog := []*models.Question{
		newQuestion("one", models.GenericAffinity()),
		newQuestion("two", models.SingleStageAffinity("adult")),
		newQuestion("three", models.MultiStageAffinity("teen", "senior")),
		newQuestion("four", models.GenericAffinity()),
	}
	userID := uuid.New()

	var picks []uuid.UUID
	for range 3 {
		fakes := newFakeRepos()
		fakes.questions.questions = catalog
		result := newDailyPromptTestService(t, fakes).GetOrAssign(context.Background(), userID, promptDate, "en")
		require.Equal(t, PromptStatusAssigned, result.Status)
		picks = append(picks, *result.QuestionID)
	}

	assert.Equal(t, picks[0], picks[1])
	assert.Equal(t, picks[1], picks[2])
}

func TestDailyPromptService_GetOrAssign_ConcurrentFirstVisit(t *testing.T) {
	fakes := newFakeRepos()
	fakes.questions.questions = []*models.Question{
		newQuestion("one", models.GenericAffinity()),
		newQuestion("two", models.GenericAffinity()),
		newQuestion("three", models.SingleStageAffinity("adult")),
	}

	var barrier sync.WaitGroup
	barrier.Add(2)
	// Hold both inserts until each caller has seen an empty ledger
	fakes.prompts.beforeCreate = func() {
		barrier.Done()
		barrier.Wait()
	}

	service := newDailyPromptTestService(t, fakes)
	userID := uuid.New()

	results := make([]PromptResult, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = service.GetOrAssign(context.Background(), userID, promptDate, "en")
		}(i)
	}
	wg.Wait()

	require.Equal(t, PromptStatusAssigned, results[0].Status)
	require.Equal(t, PromptStatusAssigned, results[1].Status)
	assert.Equal(t, *results[0].QuestionID, *results[1].QuestionID)
	assert.Equal(t, 1, fakes.prompts.count())
}

func TestDailyPromptService_GetOrAssign_LocalizedText(t *testing.T) {
	tests := []struct {
		name     string
		textES   *string
		locale   string
		expected string
	}{
		{"spanish available", strPtr("¿Qué te hizo sonreír hoy?"), "es", "¿Qué te hizo sonreír hoy?"},
		{"spanish missing", nil, "es", "What made you smile today?"},
		{"spanish empty", strPtr(""), "es", "What made you smile today?"},
		{"english requested", strPtr("¿Qué te hizo sonreír hoy?"), "en", "What made you smile today?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakes := newFakeRepos()
			q := newQuestion("What made you smile today?", models.GenericAffinity())
			q.TextES = tt.textES
			fakes.questions.questions = []*models.Question{q}

			result := newDailyPromptTestService(t, fakes).
				GetOrAssign(context.Background(), uuid.New(), promptDate, tt.locale)

			assert.Equal(t, tt.expected, result.Text)
		})
	}
}

func TestDailyPromptService_GetOrAssign_StoreErrors(t *testing.T) {
	t.Run("catalog read fails", func(t *testing.T) {
		fakes := newFakeRepos()
		fakes.questions.err = errStore

		result := newDailyPromptTestService(t, fakes).GetOrAssign(context.Background(), uuid.New(), promptDate, "en")

		assert.Equal(t, PromptStatusError, result.Status)
	})

	t.Run("profile read fails", func(t *testing.T) {
		fakes := newFakeRepos()
		fakes.questions.questions = []*models.Question{newQuestion("one", models.GenericAffinity())}
		fakes.profiles.err = errStore

		result := newDailyPromptTestService(t, fakes).GetOrAssign(context.Background(), uuid.New(), promptDate, "en")

		assert.Equal(t, PromptStatusError, result.Status)
	})

	t.Run("insert fails", func(t *testing.T) {
		fakes := newFakeRepos()
		fakes.questions.questions = []*models.Question{newQuestion("one", models.GenericAffinity())}
		fakes.prompts.createErr = errors.New("connection reset")

		result := newDailyPromptTestService(t, fakes).GetOrAssign(context.Background(), uuid.New(), promptDate, "en")

		assert.Equal(t, PromptStatusError, result.Status)
		assert.Equal(t, 0, fakes.prompts.count())
	})
}

func TestDailyPromptService_AssignNext_IndexMonotonicity(t *testing.T) {
	fakes := newFakeRepos()
	fakes.questions.questions = []*models.Question{
		newQuestion("one", models.GenericAffinity()),
		newQuestion("two", models.SingleStageAffinity("adult")),
		newQuestion("three", models.SingleStageAffinity("teen")),
	}
	service := newDailyPromptTestService(t, fakes)
	userID := uuid.New()
	ctx := context.Background()

	first := service.GetOrAssign(ctx, userID, promptDate, "en")
	require.Equal(t, PromptStatusAssigned, first.Status)

	const replacements = 5
	for i := range replacements {
		result := service.AssignNext(ctx, userID, promptDate, "en")
		require.Equal(t, PromptStatusAssigned, result.Status, "replacement %d", i+1)
		assert.Equal(t, i+2, result.Index)
	}

	prompts, err := fakes.prompts.GetAllForDate(ctx, nil, userID, models.ISODate(promptDate))
	require.NoError(t, err)
	require.Len(t, prompts, replacements+1)

	indexes := make([]int, 0, len(prompts))
	for _, p := range prompts {
		indexes = append(indexes, p.PromptIndex)
	}
	sort.Ints(indexes)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, indexes)

	current := service.GetOrAssign(ctx, userID, promptDate, "en")
	assert.Equal(t, replacements+1, current.Index)
}

func TestDailyPromptService_AssignNext_AvoidsRepeatsUntilExhausted(t *testing.T) {
	fakes := newFakeRepos()
	fakes.questions.questions = []*models.Question{
		newQuestion("one", models.GenericAffinity()),
		newQuestion("two", models.GenericAffinity()),
		newQuestion("three", models.GenericAffinity()),
	}
	service := newDailyPromptTestService(t, fakes)
	userID := uuid.New()
	ctx := context.Background()

	seen := map[uuid.UUID]bool{}
	first := service.GetOrAssign(ctx, userID, promptDate, "en")
	seen[*first.QuestionID] = true

	for range 2 {
		result := service.AssignNext(ctx, userID, promptDate, "en")
		require.Equal(t, PromptStatusAssigned, result.Status)
		assert.False(t, seen[*result.QuestionID], "question repeated before the catalog was exhausted")
		seen[*result.QuestionID] = true
	}
	assert.Len(t, seen, 3)

	exhausted := service.AssignNext(ctx, userID, promptDate, "en")
	assert.Equal(t, PromptStatusAssigned, exhausted.Status)
	assert.Equal(t, 4, exhausted.Index)
}

func TestDailyPromptService_AssignNext_WithoutInitialPrompt(t *testing.T) {
	fakes := newFakeRepos()
	fakes.questions.questions = []*models.Question{newQuestion("one", models.GenericAffinity())}

	result := newDailyPromptTestService(t, fakes).AssignNext(context.Background(), uuid.New(), promptDate, "en")

	assert.Equal(t, PromptStatusAssigned, result.Status)
	assert.Equal(t, 1, result.Index)
}

func TestDailyPromptService_AssignNext_EmptyCatalog(t *testing.T) {
	fakes := newFakeRepos()

	result := newDailyPromptTestService(t, fakes).AssignNext(context.Background(), uuid.New(), promptDate, "en")

	assert.Equal(t, PromptStatusNoQuestions, result.Status)
}

func TestDailyPromptService_AssignNext_DuplicateIsAnError(t *testing.T) {
	fakes := newFakeRepos()
	fakes.questions.questions = []*models.Question{newQuestion("one", models.GenericAffinity())}
	fakes.prompts.createErr = errors.New("duplicate key value violates unique constraint")

	result := newDailyPromptTestService(t, fakes).AssignNext(context.Background(), uuid.New(), promptDate, "en")

	assert.Equal(t, PromptStatusError, result.Status)
}

func TestDailyPromptService_DatesAreIndependent(t *testing.T) {
	fakes := newFakeRepos()
	fakes.questions.questions = []*models.Question{newQuestion("one", models.GenericAffinity())}
	service := newDailyPromptTestService(t, fakes)
	userID := uuid.New()

	service.GetOrAssign(context.Background(), userID, promptDate, "en")
	next := service.GetOrAssign(context.Background(), userID, promptDate.AddDate(0, 0, 1), "en")

	assert.Equal(t, PromptStatusAssigned, next.Status)
	assert.Equal(t, 1, next.Index)
	assert.Equal(t, "2024-03-02", next.Date)
	assert.Equal(t, 2, fakes.prompts.count())
}
