package domain

import "context"

// NotificationService sends operational alerts (not channel notifications)
type NotificationService interface {
	// SendError reports a failed scheduled job run
	SendError(ctx context.Context, job string, err error) error
}
