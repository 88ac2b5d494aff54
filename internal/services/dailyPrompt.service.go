package services

import (
	"context"
	"errors"
	"time"

	"journal/internal/database"
	. "journal/internal/models"
	"journal/internal/repositories"
	"journal/pkg/logger"

	"github.com/google/uuid"
)

type PromptStatus string

const (
	PromptStatusAssigned    PromptStatus = "assigned"
	PromptStatusNoQuestions PromptStatus = "no_questions"
	PromptStatusError       PromptStatus = "error"
)

type PromptResult struct {
	Status     PromptStatus `json:"status"`
	QuestionID *uuid.UUID   `json:"questionId,omitempty"`
	Text       string       `json:"text,omitempty"`
	Index      int          `json:"index,omitempty"`
	Date       string       `json:"date,omitempty"`
}

// DailyPromptService picks a user's question of the day. Picks are deterministic per
// (user, date, index) and the assignment ledger is append-only.
type DailyPromptService struct {
	db    database.DB
	repos repositories.Repository
	log   logger.Logger
}

func NewDailyPromptService(db database.DB, repos repositories.Repository) *DailyPromptService {
	return &DailyPromptService{
		db:    db,
		repos: repos,
		log:   logger.New("dailyPromptService"),
	}
}

func assignedResult(prompt *DailyPrompt, question *Question, locale string) PromptResult {
	questionID := prompt.QuestionID
	result := PromptResult{
		Status:     PromptStatusAssigned,
		QuestionID: &questionID,
		Index:      prompt.PromptIndex,
		Date:       ISODate(prompt.PromptDate),
	}
	if question != nil {
		result.Text = question.DisplayText(locale)
	}
	return result
}

// latestResult resolves the current prompt for the day, loading the question
// separately when the ledger row came back without it.
func (s *DailyPromptService) latestResult(
	ctx context.Context,
	userID uuid.UUID,
	isoDate string,
	locale string,
) (*PromptResult, error) {
	tx := s.db.SQLWithContext(ctx)

	latest, err := s.repos.DailyPrompt.GetLatest(ctx, tx, userID, isoDate)
	if err != nil || latest == nil {
		return nil, err
	}

	question := latest.Question
	if question == nil {
		question, err = s.repos.Question.GetByID(ctx, tx, latest.QuestionID)
		if err != nil {
			return nil, err
		}
	}

	result := assignedResult(latest, question, locale)
	return &result, nil
}

func (s *DailyPromptService) GetOrAssign(
	ctx context.Context,
	userID uuid.UUID,
	date time.Time,
	locale string,
) PromptResult {
	log := s.log.Function("GetOrAssign")
	isoDate := ISODate(date)
	tx := s.db.SQLWithContext(ctx)

	existing, err := s.latestResult(ctx, userID, isoDate, locale)
	if err != nil {
		_ = log.Err("failed to load current prompt", err, "userID", userID, "date", isoDate)
		return PromptResult{Status: PromptStatusError}
	}
	if existing != nil {
		return *existing
	}

	profile, err := s.repos.Profile.GetByUserID(ctx, tx, userID)
	if err != nil {
		_ = log.Err("failed to load profile", err, "userID", userID)
		return PromptResult{Status: PromptStatusError}
	}

	questions, err := s.repos.Question.GetActive(ctx, tx)
	if err != nil {
		_ = log.Err("failed to load questions", err, "userID", userID)
		return PromptResult{Status: PromptStatusError}
	}

	question, ok := PickWeighted(
		weightQuestions(questions, profile.ResolvedLifeStage()),
		StableSeed(userID.String(), isoDate),
	)
	if !ok {
		log.Warn("no active questions to assign", "userID", userID)
		return PromptResult{Status: PromptStatusNoQuestions}
	}

	promptDate, _ := ParseISODate(isoDate)
	prompt := &DailyPrompt{
		UserID:      userID,
		PromptDate:  promptDate,
		PromptIndex: FirstPromptIndex,
		QuestionID:  question.ID,
		Question:    question,
		Mode:        PromptModeHybrid,
	}

	err = s.repos.DailyPrompt.Create(ctx, tx, prompt)
	if errors.Is(err, repositories.ErrDuplicateDailyPrompt) {
		// A concurrent request assigned the first prompt; serve the row it wrote
		winner, readErr := s.latestResult(ctx, userID, isoDate, locale)
		if readErr != nil || winner == nil {
			log.Er("failed to re-read prompt after insert race", readErr, "userID", userID, "date", isoDate)
			return PromptResult{Status: PromptStatusError}
		}
		return *winner
	}
	if err != nil {
		_ = log.Err("failed to assign daily prompt", err, "userID", userID, "date", isoDate)
		return PromptResult{Status: PromptStatusError}
	}

	log.Info("Assigned daily prompt", "userID", userID, "date", isoDate, "questionID", question.ID)
	return assignedResult(prompt, question, locale)
}

// AssignNext appends a replacement prompt for the day, preferring questions not yet
// shown that day and repeating once the catalog is exhausted.
func (s *DailyPromptService) AssignNext(
	ctx context.Context,
	userID uuid.UUID,
	date time.Time,
	locale string,
) PromptResult {
	log := s.log.Function("AssignNext")
	isoDate := ISODate(date)
	tx := s.db.SQLWithContext(ctx)

	assigned, err := s.repos.DailyPrompt.GetAllForDate(ctx, tx, userID, isoDate)
	if err != nil {
		_ = log.Err("failed to load prompts for date", err, "userID", userID, "date", isoDate)
		return PromptResult{Status: PromptStatusError}
	}

	used := make(map[uuid.UUID]struct{}, len(assigned))
	maxIndex := 0
	for _, prompt := range assigned {
		used[prompt.QuestionID] = struct{}{}
		maxIndex = max(maxIndex, prompt.PromptIndex)
	}

	profile, err := s.repos.Profile.GetByUserID(ctx, tx, userID)
	if err != nil {
		_ = log.Err("failed to load profile", err, "userID", userID)
		return PromptResult{Status: PromptStatusError}
	}

	questions, err := s.repos.Question.GetActive(ctx, tx)
	if err != nil {
		_ = log.Err("failed to load questions", err, "userID", userID)
		return PromptResult{Status: PromptStatusError}
	}

	candidates := make([]*Question, 0, len(questions))
	for _, q := range questions {
		if _, seen := used[q.ID]; !seen {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		candidates = questions
	}

	nextIndex := maxIndex + 1
	question, ok := PickWeighted(
		weightQuestions(candidates, profile.ResolvedLifeStage()),
		StableSeed(userID.String(), isoDate, nextIndex),
	)
	if !ok {
		log.Warn("no active questions to assign", "userID", userID)
		return PromptResult{Status: PromptStatusNoQuestions}
	}

	promptDate, _ := ParseISODate(isoDate)
	prompt := &DailyPrompt{
		UserID:      userID,
		PromptDate:  promptDate,
		PromptIndex: nextIndex,
		QuestionID:  question.ID,
		Question:    question,
		Mode:        PromptModeHybrid,
	}

	if err := s.repos.DailyPrompt.Create(ctx, tx, prompt); err != nil {
		_ = log.Err("failed to assign next prompt", err, "userID", userID, "index", nextIndex)
		return PromptResult{Status: PromptStatusError}
	}

	log.Info("Assigned replacement prompt", "userID", userID, "date", isoDate, "index", nextIndex)
	return assignedResult(prompt, question, locale)
}
