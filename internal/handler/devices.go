package handler

import (
	"log/slog"
	"net/http"

	"moment/internal/httputil"
	"moment/internal/service/devices"
)

// DeviceHandler registers push-notification tokens.
type DeviceHandler struct {
	service *devices.Service
	logger  *slog.Logger
}

// NewDeviceHandler creates a device handler.
func NewDeviceHandler(service *devices.Service, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{service: service, logger: logger}
}

type fcmTokenRequest struct {
	FCMToken string `json:"fcm_token"`
}

// RegisterFCMToken stores the device's push token
// POST /devices/fcm-token
func (h *DeviceHandler) RegisterFCMToken(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req fcmTokenRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.RegisterFCMToken(r.Context(), userID, req.FCMToken); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"message": "Token registered"})
}
