package handler

import (
	"context"
	"log/slog"
	"net/http"

	"moment/internal/domain/repositories"
	"moment/internal/httputil"
	"moment/internal/service/ai"
)

// AIHandler exposes transcription jobs and note summarization.
type AIHandler struct {
	transcriber *ai.Transcriber
	summarizer  *ai.Summarizer
	jobs        *ai.JobRegistry
	stats       repositories.AIStatsRepository
	logger      *slog.Logger
}

// NewAIHandler creates an AI handler.
func NewAIHandler(
	transcriber *ai.Transcriber,
	summarizer *ai.Summarizer,
	jobs *ai.JobRegistry,
	stats repositories.AIStatsRepository,
	logger *slog.Logger,
) *AIHandler {
	return &AIHandler{
		transcriber: transcriber,
		summarizer:  summarizer,
		jobs:        jobs,
		stats:       stats,
		logger:      logger,
	}
}

type transcribeRequest struct {
	AudioFileKey string `json:"audio_file_key"`
	Language     string `json:"language"`
}

type jobStatusResponse struct {
	Status string `json:"status"`
	Result string `json:"result"`
}

type summarizeRequest struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

// Transcribe starts a background transcription job for an uploaded audio file
// POST /ai/transcribe
func (h *AIHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req transcribeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.transcriber.Start(r.Context(), userID, req.AudioFileKey, req.Language)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"job_id": job.ID})
}

// GetJobStatus reports a transcription job's progress
// GET /ai/jobs/{id}
func (h *AIHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	jobID := r.PathValue("id")

	job, err := h.jobs.Get(userID, jobID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, jobStatusResponse{
		Status: job.Status,
		Result: job.Result,
	})
}

// Summarize turns a transcript into a structured note summary
// POST /ai/summarize
func (h *AIHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req summarizeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Best-effort usage counter; a stats hiccup never blocks the summary.
	if err := h.stats.IncrementSummarizeCount(context.WithoutCancel(r.Context()), userID); err != nil {
		h.logger.Warn("failed to increment summarize count", "user_id", userID, "error", err)
	}

	summary, err := h.summarizer.Summarize(r.Context(), req.Text, req.Format)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, summary)
}
