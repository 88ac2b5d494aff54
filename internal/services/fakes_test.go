package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"journal/internal/models"
	"journal/internal/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repositories enforcing the same guards the SQL versions encode in their
// WHERE clauses.

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions []*models.Question
	err       error
}

func (f *fakeQuestionRepo) GetActive(ctx context.Context, tx *gorm.DB) ([]*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	active := make([]*models.Question, 0, len(f.questions))
	for _, q := range f.questions {
		if q.IsActive {
			active = append(active, q)
		}
	}
	return active, nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, q := range f.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, question)
	return nil
}

type fakeDailyPromptRepo struct {
	mu        sync.Mutex
	prompts   []*models.DailyPrompt
	createErr error
	// beforeCreate runs outside the lock, letting tests interleave concurrent callers
	beforeCreate func()
}

func (f *fakeDailyPromptRepo) forDate(userID uuid.UUID, isoDate string) []*models.DailyPrompt {
	var rows []*models.DailyPrompt
	for _, p := range f.prompts {
		if p.UserID == userID && models.ISODate(p.PromptDate) == isoDate {
			rows = append(rows, p)
		}
	}
	return rows
}

func (f *fakeDailyPromptRepo) GetLatest(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	isoDate string,
) (*models.DailyPrompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.DailyPrompt
	for _, p := range f.forDate(userID, isoDate) {
		if latest == nil || p.PromptIndex > latest.PromptIndex {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	copied.Question = nil
	return &copied, nil
}

func (f *fakeDailyPromptRepo) GetAllForDate(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	isoDate string,
) ([]*models.DailyPrompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forDate(userID, isoDate), nil
}

func (f *fakeDailyPromptRepo) Create(ctx context.Context, tx *gorm.DB, prompt *models.DailyPrompt) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, p := range f.forDate(prompt.UserID, models.ISODate(prompt.PromptDate)) {
		if p.PromptIndex == prompt.PromptIndex {
			return repositories.ErrDuplicateDailyPrompt
		}
	}
	stored := *prompt
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	f.prompts = append(f.prompts, &stored)
	return nil
}

func (f *fakeDailyPromptRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*models.Profile
	err      error
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[userID], nil
}

type fakeFeatureRepo struct {
	plans     map[string]*models.PlanFeature
	overrides map[uuid.UUID]*models.UserFeatureOverride
	err       error
}

func (f *fakeFeatureRepo) GetPlanFeature(
	ctx context.Context,
	tx *gorm.DB,
	plan string,
	featureKey string,
) (*models.PlanFeature, error) {
	if f.err != nil {
		return nil, f.err
	}
	feature, ok := f.plans[plan]
	if !ok || feature.FeatureKey != featureKey {
		return nil, nil
	}
	return feature, nil
}

func (f *fakeFeatureRepo) GetUserOverride(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	featureKey string,
) (*models.UserFeatureOverride, error) {
	if f.err != nil {
		return nil, f.err
	}
	override, ok := f.overrides[userID]
	if !ok || override.FeatureKey != featureKey {
		return nil, nil
	}
	return override, nil
}

type fakeMemoryMediaRepo struct {
	mu       sync.Mutex
	media    []*models.MemoryMedia
	usage    int64
	fetchErr error
	claimErr error
	// afterFetch runs under the lock once pending rows are selected, standing in for a
	// concurrent run that touches the stored rows
	afterFetch func(stored []*models.MemoryMedia)
}

func (f *fakeMemoryMediaRepo) update(
	match func(*models.MemoryMedia) bool,
	apply func(*models.MemoryMedia),
) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows int64
	for _, m := range f.media {
		if match(m) {
			apply(m)
			rows++
		}
	}
	return rows
}

func ownedAudio(memoryID, userID uuid.UUID) func(*models.MemoryMedia) bool {
	return func(m *models.MemoryMedia) bool {
		return m.MemoryID == memoryID && m.UserID == userID && m.Kind == models.MediaKindAudio
	}
}

func (f *fakeMemoryMediaRepo) QueueTranscription(
	ctx context.Context,
	tx *gorm.DB,
	memoryID uuid.UUID,
	userID uuid.UUID,
	language string,
) (int64, error) {
	owned := ownedAudio(memoryID, userID)
	return f.update(
		func(m *models.MemoryMedia) bool {
			return owned(m) &&
				(m.TranscriptStatus == models.TranscriptStatusNone || m.TranscriptStatus == models.TranscriptStatusPending)
		},
		func(m *models.MemoryMedia) {
			m.TranscriptStatus = models.TranscriptStatusPending
			m.TranscriptLanguage = &language
			m.TranscriptError = nil
		},
	), nil
}

func (f *fakeMemoryMediaRepo) RetryTranscription(
	ctx context.Context,
	tx *gorm.DB,
	memoryID uuid.UUID,
	userID uuid.UUID,
) (int64, error) {
	owned := ownedAudio(memoryID, userID)
	return f.update(
		func(m *models.MemoryMedia) bool {
			return owned(m) && m.TranscriptStatus == models.TranscriptStatusFailed
		},
		func(m *models.MemoryMedia) {
			m.TranscriptStatus = models.TranscriptStatusPending
			m.TranscriptError = nil
		},
	), nil
}

func (f *fakeMemoryMediaRepo) GetPendingAudio(
	ctx context.Context,
	tx *gorm.DB,
	limit int,
) ([]*models.MemoryMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	var pending []*models.MemoryMedia
	for _, m := range f.media {
		if m.TranscriptStatus == models.TranscriptStatusPending && m.Kind == models.MediaKindAudio {
			copied := *m
			pending = append(pending, &copied)
		}
	}
	slices.SortStableFunc(pending, func(a, b *models.MemoryMedia) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	if f.afterFetch != nil {
		f.afterFetch(f.media)
	}
	return pending, nil
}

func (f *fakeMemoryMediaRepo) byIDWithStatus(id uuid.UUID, status models.TranscriptStatus) func(*models.MemoryMedia) bool {
	return func(m *models.MemoryMedia) bool {
		return m.ID == id && m.TranscriptStatus == status
	}
}

func (f *fakeMemoryMediaRepo) Claim(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	rows := f.update(
		f.byIDWithStatus(mediaID, models.TranscriptStatusPending),
		func(m *models.MemoryMedia) {
			m.TranscriptStatus = models.TranscriptStatusProcessing
			m.TranscriptAttempts++
		},
	)
	return rows == 1, nil
}

func (f *fakeMemoryMediaRepo) RejectPending(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID, reason string) (bool, error) {
	rows := f.update(
		f.byIDWithStatus(mediaID, models.TranscriptStatusPending),
		func(m *models.MemoryMedia) {
			message := models.TruncateTranscriptError(reason)
			m.TranscriptStatus = models.TranscriptStatusFailed
			m.TranscriptAttempts++
			m.TranscriptError = &message
		},
	)
	return rows == 1, nil
}

func (f *fakeMemoryMediaRepo) Complete(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID, transcript string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.update(
		f.byIDWithStatus(mediaID, models.TranscriptStatusProcessing),
		func(m *models.MemoryMedia) {
			m.TranscriptStatus = models.TranscriptStatusCompleted
			m.Transcript = &transcript
			m.TranscriptError = nil
		},
	)
	return nil
}

func (f *fakeMemoryMediaRepo) Fail(ctx context.Context, tx *gorm.DB, mediaID uuid.UUID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.update(
		f.byIDWithStatus(mediaID, models.TranscriptStatusProcessing),
		func(m *models.MemoryMedia) {
			message := models.TruncateTranscriptError(reason)
			m.TranscriptStatus = models.TranscriptStatusFailed
			m.TranscriptError = &message
		},
	)
	return nil
}

func (f *fakeMemoryMediaRepo) CountTranscriptionRequestsSince(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	since time.Time,
) (int64, error) {
	return f.usage, nil
}

func (f *fakeMemoryMediaRepo) GetByMemoryID(
	ctx context.Context,
	tx *gorm.DB,
	memoryID uuid.UUID,
	userID uuid.UUID,
) ([]*models.MemoryMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*models.MemoryMedia
	for _, m := range f.media {
		if m.MemoryID == memoryID && m.UserID == userID {
			copied := *m
			rows = append(rows, &copied)
		}
	}
	return rows, nil
}

func (f *fakeMemoryMediaRepo) get(id uuid.UUID) models.MemoryMedia {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.media {
		if m.ID == id {
			return *m
		}
	}
	return models.MemoryMedia{}
}

type fakeFeedbackRepo struct {
	mu       sync.Mutex
	feedback map[uuid.UUID]*models.QuestionFeedback
}

func (f *fakeFeedbackRepo) Get(
	ctx context.Context,
	tx *gorm.DB,
	userID uuid.UUID,
	questionID uuid.UUID,
) (*models.QuestionFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb, ok := f.feedback[questionID]
	if !ok || fb.UserID != userID {
		return nil, nil
	}
	return fb, nil
}

func (f *fakeFeedbackRepo) Upsert(ctx context.Context, tx *gorm.DB, feedback *models.QuestionFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedback[feedback.QuestionID] = feedback
	return nil
}

func (f *fakeFeedbackRepo) Delete(ctx context.Context, tx *gorm.DB, userID uuid.UUID, questionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.feedback, questionID)
	return nil
}

type fakeRepos struct {
	questions *fakeQuestionRepo
	prompts   *fakeDailyPromptRepo
	profiles  *fakeProfileRepo
	features  *fakeFeatureRepo
	media     *fakeMemoryMediaRepo
	feedback  *fakeFeedbackRepo
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		questions: &fakeQuestionRepo{},
		prompts:   &fakeDailyPromptRepo{},
		profiles:  &fakeProfileRepo{profiles: map[uuid.UUID]*models.Profile{}},
		features: &fakeFeatureRepo{
			plans:     map[string]*models.PlanFeature{},
			overrides: map[uuid.UUID]*models.UserFeatureOverride{},
		},
		media:    &fakeMemoryMediaRepo{},
		feedback: &fakeFeedbackRepo{feedback: map[uuid.UUID]*models.QuestionFeedback{}},
	}
}

func (f *fakeRepos) repository() repositories.Repository {
	return repositories.Repository{
		Question:         f.questions,
		DailyPrompt:      f.prompts,
		Profile:          f.profiles,
		Feature:          f.features,
		MemoryMedia:      f.media,
		QuestionFeedback: f.feedback,
	}
}

func (f *fakeRepos) enableTranscription(plan string, limit *int) {
	f.features.plans[plan] = &models.PlanFeature{
		Plan:       plan,
		FeatureKey: models.FeatureTranscription,
		Enabled:    true,
		LimitValue: limit,
	}
}

func newQuestion(text string, affinity models.LifeStageAffinity) *models.Question {
	q := &models.Question{Text: text, IsActive: true}
	q.ID = uuid.New()
	q.SetAffinity(affinity)
	return q
}

func newPendingAudio(userID uuid.UUID, createdAt time.Time) *models.MemoryMedia {
	return &models.MemoryMedia{
		ID:               uuid.New(),
		MemoryID:         uuid.New(),
		UserID:           userID,
		Kind:             models.MediaKindAudio,
		StorageBucket:    "journal-media",
		StoragePath:      userID.String() + "/" + uuid.NewString() + ".webm",
		TranscriptStatus: models.TranscriptStatusPending,
		CreatedAt:        createdAt,
	}
}

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

var errStore = errors.New("store unavailable")

type fakeStorage struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	err       error
	downloads int
}

func (f *fakeStorage) Download(ctx context.Context, bucket string, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.err != nil {
		return nil, f.err
	}
	blob, ok := f.blobs[path]
	if !ok {
		return []byte("audio"), nil
	}
	return blob, nil
}

type fakeSpeechToText struct {
	mu        sync.Mutex
	failFor   map[string]bool
	calls     []string
	languages []string
	// during runs inside Transcribe before the result is decided
	during func()
}

func (f *fakeSpeechToText) Transcribe(
	ctx context.Context,
	audio []byte,
	mimeType string,
	language string,
) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, string(audio))
	f.languages = append(f.languages, language)
	if f.during != nil {
		f.during()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.failFor[string(audio)] {
		return "", errors.New("speech-to-text request failed (503): overloaded")
	}
	return "transcript of " + string(audio), nil
}
