package request

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ivisit/api/internal/platform/realtime"
)

// UISignaler carries the one-way signals from the request flow back to the
// user's device: sheet snap requests, selection clearing, and haptic
// feedback. All signals are fire-and-forget.
type UISignaler interface {
	RequestSnap(ctx context.Context, userID string, index int)
	ClearSelection(ctx context.Context, userID string)
	Haptic(ctx context.Context, userID string, kind string)
}

// HubSignaler delivers UI signals over the user's realtime topic.
type HubSignaler struct {
	pub    realtime.Publisher
	logger zerolog.Logger
}

func NewHubSignaler(pub realtime.Publisher, logger zerolog.Logger) *HubSignaler {
	return &HubSignaler{pub: pub, logger: logger}
}

func (h *HubSignaler) publish(ctx context.Context, userID, eventType string, data interface{}) {
	event, err := realtime.NewEvent(eventType, realtime.TopicUser(userID), data)
	if err == nil {
		err = h.pub.Publish(ctx, event)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID).Str("event", eventType).
			Msg("ui signal dropped")
	}
}

func (h *HubSignaler) RequestSnap(ctx context.Context, userID string, index int) {
	h.publish(ctx, userID, "ui.sheet.snap", map[string]int{"index": index})
}

func (h *HubSignaler) ClearSelection(ctx context.Context, userID string) {
	h.publish(ctx, userID, "ui.selection.cleared", nil)
}

func (h *HubSignaler) Haptic(ctx context.Context, userID string, kind string) {
	h.publish(ctx, userID, "ui.haptic", map[string]string{"kind": kind})
}

// NopSignaler discards all UI signals.
type NopSignaler struct{}

func (NopSignaler) RequestSnap(context.Context, string, int) {}
func (NopSignaler) ClearSelection(context.Context, string)   {}
func (NopSignaler) Haptic(context.Context, string, string)   {}
