package audit

import (
	"context"
	"log/slog"
)

// Worker drains audit events from a channel into a Publisher so emitting
// services never block on the sink. Run it under the server errgroup.
type Worker struct {
	publisher Publisher
	inbox     <-chan Event
	logger    *slog.Logger
}

func NewWorker(publisher Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil {
				// Audit delivery failures must not take the worker down;
				// the event is lost and that fact is logged.
				w.logger.ErrorContext(ctx, "audit event dropped",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}

// ChannelPublisher feeds a Worker. Emit drops events (with a log line) when
// the inbox is full rather than blocking a request handler.
type ChannelPublisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewChannelPublisher(inbox chan<- Event, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox, logger: logger}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event", "action", event.Action)
		return nil
	}
}
