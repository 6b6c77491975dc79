// Package notify delivers booking notifications.
package notify

import (
	"context"
	"log/slog"

	"github.com/example/roombook/internal/application"
	"github.com/example/roombook/internal/logging"
)

// RecipientSource returns the address booking notifications go to.
type RecipientSource interface {
	CurrentSettings(ctx context.Context) application.Settings
}

// LogNotifier records each notification as a structured log line in place of
// sending mail.
type LogNotifier struct {
	settings RecipientSource
	logger   *slog.Logger
}

var _ application.Notifier = (*LogNotifier)(nil)

// NewLogNotifier constructs a LogNotifier. settings may be nil.
func NewLogNotifier(settings RecipientSource, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{settings: settings, logger: logger}
}

func (n *LogNotifier) loggerFor(ctx context.Context, kind string, booking application.Booking, room application.Room) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = n.logger
	}
	attrs := []any{
		"component", "notifier",
		"notification", kind,
		"booking_id", booking.ID,
		"room_id", room.ID,
		"room_name", room.Name,
		"user_id", booking.UserID,
		"status", string(booking.Status),
		"start", booking.Start,
		"end", booking.End,
	}
	if n.settings != nil {
		if to := n.settings.CurrentSettings(ctx).NotificationEmail; to != nil && *to != "" {
			attrs = append(attrs, "recipient", *to)
		}
	}
	return logger.With(attrs...)
}

// NotifyBookingPending announces a booking that awaits approval.
func (n *LogNotifier) NotifyBookingPending(ctx context.Context, booking application.Booking, room application.Room) error {
	n.loggerFor(ctx, "booking_pending", booking, room).InfoContext(ctx, "booking awaiting approval")
	return nil
}

// NotifyBookingDecision announces an approval or rejection to the owner.
func (n *LogNotifier) NotifyBookingDecision(ctx context.Context, booking application.Booking, room application.Room) error {
	logger := n.loggerFor(ctx, "booking_decision", booking, room)
	if booking.RejectionReason != nil {
		logger = logger.With("reason", *booking.RejectionReason)
	}
	logger.InfoContext(ctx, "booking decision sent")
	return nil
}
