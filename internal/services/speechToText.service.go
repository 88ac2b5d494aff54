package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"journal/config"
	"journal/internal/utils"
	"journal/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

var (
	ErrEmptyTranscript       = errors.New("speech-to-text returned an empty transcript")
	ErrSpeechToTextNotConfig = errors.New("speech-to-text is not configured")
)

// SpeechToText turns an audio blob into plain transcript text
type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string, language string) (string, error)
}

// TranscriptionPrompt is the instruction sent alongside every audio payload
func TranscriptionPrompt(language string) string {
	return strings.Join([]string{
		"You are a highly accurate speech transcription system.",
		"Transcribe the audio exactly as spoken, preserving pauses, fillers, and natural inflection.",
		fmt.Sprintf("Preferred language hint: %s.", language),
		"Return only transcript text, no markdown, no explanations.",
	}, "\n")
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// linearBackOff waits step, 2*step, 3*step... between attempts
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	retryStep  time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logger.Logger
}

const geminiAPIKeyHeader = "x-goog-api-key"

func NewGeminiClient(cfg config.Config) *GeminiClient {
	limit := rate.Inf
	if cfg.TranscriptionRPM > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.TranscriptionRPM))
	}

	return &GeminiClient{
		apiKey:     cfg.GeminiAPIKey,
		model:      cfg.GeminiModel,
		baseURL:    strings.TrimRight(cfg.GeminiBaseURL, "/"),
		timeout:    time.Duration(cfg.TranscriptionTimeout) * time.Second,
		retryStep:  TranscriptionRetryStep,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, 1),
		log:        logger.New("geminiClient"),
	}
}

func (c *GeminiClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.baseURL != "" && c.model != ""
}

// Transcribe calls the model up to three times, waiting one second longer before each
// retry. The last error is returned once attempts run out.
func (c *GeminiClient) Transcribe(
	ctx context.Context,
	audio []byte,
	mimeType string,
	language string,
) (string, error) {
	log := c.log.Function("Transcribe")

	if !c.Configured() {
		return "", ErrSpeechToTextNotConfig
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: TranscriptionPrompt(language)},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
	})
	if err != nil {
		return "", log.Err("failed to encode transcription request", err)
	}

	var transcript string
	attempt := 0
	operation := func() error {
		attempt++
		text, err := c.generate(ctx, body)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.Warn("transcription attempt failed", "attempt", attempt, "error", err)
			return err
		}
		transcript = text
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: c.retryStep}, TranscriptionMaxAttempts-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	return transcript, nil
}

func (c *GeminiClient) generate(ctx context.Context, body []byte) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// the key travels in a header; transport errors echo the URL back to callers
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(geminiAPIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", fmt.Errorf("speech-to-text request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode speech-to-text response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyTranscript
	}

	text, _ := utils.CleanText(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}

	return text, nil
}
