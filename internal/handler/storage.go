package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"moment/internal/httputil"
	"moment/internal/service/storage"
)

// StorageHandler exposes presigned upload and download URLs.
type StorageHandler struct {
	presigner *storage.Presigner
	logger    *slog.Logger
}

// NewStorageHandler creates a storage handler.
func NewStorageHandler(presigner *storage.Presigner, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{presigner: presigner, logger: logger}
}

type presignUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

type presignUploadResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
}

// CreatePresignedURL hands the device a short-lived PUT URL for a new file
// POST /storage/presigned-url
func (h *StorageHandler) CreatePresignedURL(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req presignUploadRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category := categoryFromContentType(req.ContentType)
	presigned, err := h.presigner.PresignUpload(r.Context(), userID, category, req.Filename, req.ContentType)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, presignUploadResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.Key,
	})
}

// GetFile redirects to a short-lived GET URL for a file the caller owns
// GET /storage/file/{key...}
func (h *StorageHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	key := r.PathValue("key")

	presigned, err := h.presigner.PresignDownload(r.Context(), userID, key)
	if err != nil {
		handleError(w, err)
		return
	}

	http.Redirect(w, r, presigned.URL, http.StatusTemporaryRedirect)
}

// categoryFromContentType sorts uploads into the user's audio, images, or
// files prefix based on MIME type.
func categoryFromContentType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "audio/"):
		return "audio"
	case strings.HasPrefix(contentType, "image/"):
		return "images"
	default:
		return "files"
	}
}
