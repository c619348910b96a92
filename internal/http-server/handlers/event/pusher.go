package event

import (
	"fmt"

	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"go-crash/internal/crash"
	"go-crash/internal/lib/logger/sl"
)

// PusherEvent publishes engine events through a managed pusher channel
// instead of the self-hosted ws hub; selected by config.
type PusherEvent struct {
	log    *slog.Logger
	pusher *pusher.Client
}

func NewPusherEvent(log *slog.Logger, pusherClient *pusher.Client) *PusherEvent {
	return &PusherEvent{
		log:    log,
		pusher: pusherClient,
	}
}

func (p *PusherEvent) Publish(ev crash.Event) error {
	const op = "handlers.event.PusherEvent.Publish"

	if err := p.pusher.Trigger(crash.Channel, ev.Name, ev.Data); err != nil {
		p.log.Error("failed to trigger pusher event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
