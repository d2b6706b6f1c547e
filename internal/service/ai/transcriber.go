package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"moment/internal/domain"
	"moment/internal/service/storage"
)

// transcribeTimeout caps one background transcription run end to end.
const transcribeTimeout = 10 * time.Minute

// Transcriber runs speech-to-text as background jobs. The audio never moves
// through this server: the job hands the external API a short-lived
// presigned URL for the object the device already uploaded, and the client
// polls the job registry for the transcript.
type Transcriber struct {
	presigner  *storage.Presigner
	jobs       *JobRegistry
	httpClient *http.Client
	apiURL     string
	apiKey     string
	logger     *slog.Logger
}

// NewTranscriber creates a transcriber backed by the external API at apiURL.
func NewTranscriber(presigner *storage.Presigner, jobs *JobRegistry, apiURL, apiKey string, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		presigner:  presigner,
		jobs:       jobs,
		httpClient: &http.Client{Timeout: transcribeTimeout},
		apiURL:     apiURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Start validates the request, registers a job, and kicks off the
// transcription in the background. The returned job id is immediately
// pollable.
func (t *Transcriber) Start(ctx context.Context, userID, audioFileKey, language string) (*Job, error) {
	if t.apiURL == "" {
		return nil, fmt.Errorf("%w: transcription is not configured", domain.ErrUnavailable)
	}
	if audioFileKey == "" {
		return nil, fmt.Errorf("%w: audio_file_key is required", domain.ErrValidation)
	}

	// Presign now, inside the request, so an unowned or malformed key
	// fails the request instead of a job the client has to poll to see.
	download, err := t.presigner.PresignDownload(ctx, userID, audioFileKey)
	if err != nil {
		return nil, err
	}

	job := t.jobs.Create(userID)
	t.logger.Info("transcription started", "job_id", job.ID, "user_id", userID, "key", audioFileKey)

	go t.run(job.ID, download.URL, language)
	return job, nil
}

// run executes one job. It deliberately does not inherit the request
// context; the job outlives the HTTP request that started it.
func (t *Transcriber) run(jobID, audioURL, language string) {
	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	transcript, err := t.transcribe(ctx, audioURL, language)
	if err != nil {
		t.logger.Error("transcription failed", "job_id", jobID, "error", err)
		t.jobs.Fail(jobID, err.Error())
		return
	}

	t.jobs.Complete(jobID, transcript)
	t.logger.Info("transcription completed", "job_id", jobID)
}

type transcribeRequest struct {
	AudioURL string `json:"audio_url"`
	Language string `json:"language,omitempty"`
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func (t *Transcriber) transcribe(ctx context.Context, audioURL, language string) (string, error) {
	payload, err := json.Marshal(transcribeRequest{AudioURL: audioURL, Language: language})
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcribe request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription API unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, string(body))
	}

	var out transcribeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode transcription response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("transcription API error: %s", out.Error)
	}
	return out.Text, nil
}
