package ports

import (
	"context"

	"github.com/google/uuid"
)

// NotificationParams describes an outbound notification about a ticket.
type NotificationParams struct {
	RecipientUserID uuid.UUID
	Subject         string
	TicketNumber    string
}

// Notifier delivers out-of-band notifications to users. Implementations
// handle their own errors; callers fire and forget.
type Notifier interface {
	Notify(ctx context.Context, params NotificationParams)
}
