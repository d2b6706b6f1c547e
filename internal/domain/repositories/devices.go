package repositories

import "context"

// DeviceRepository records push-notification tokens per device. Delivery
// itself happens outside this service.
type DeviceRepository interface {
	// RegisterToken upserts a (user, token) pair; re-registering the same
	// token is a no-op.
	RegisterToken(ctx context.Context, userID, fcmToken string) error
}

// AIStatsRepository tracks per-user AI usage counters.
type AIStatsRepository interface {
	IncrementSummarizeCount(ctx context.Context, userID string) error
}
