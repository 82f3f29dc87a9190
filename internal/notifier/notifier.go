package notifier

import (
	"context"
)

// Notifier defines the interface for posting announcements
type Notifier interface {
	// Notify posts text to every configured destination
	Notify(ctx context.Context, text string) error
}
