// Package devices registers per-device push tokens so notification delivery
// (which runs elsewhere) knows where to reach each account.
package devices

import (
	"context"
	"fmt"
	"log/slog"

	"moment/internal/domain"
	"moment/internal/domain/repositories"
)

// Service validates and stores device push tokens.
type Service struct {
	repo   repositories.DeviceRepository
	logger *slog.Logger
}

// NewService creates a device service.
func NewService(repo repositories.DeviceRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// RegisterFCMToken records the token for the user. Registering the same
// token again is a no-op, so the app can safely re-send it on every launch.
func (s *Service) RegisterFCMToken(ctx context.Context, userID, fcmToken string) error {
	if fcmToken == "" {
		return fmt.Errorf("%w: fcm_token is required", domain.ErrValidation)
	}

	if err := s.repo.RegisterToken(ctx, userID, fcmToken); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	s.logger.Debug("fcm token registered", "user_id", userID)
	return nil
}
