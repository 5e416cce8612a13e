// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package live

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/taibuivan/sprinto/internal/platform/ctxutil"
)

// Recorder receives fan-out statistics.
type Recorder interface {
	RecordBroadcast(eventType string, dropped int)
}

// Broadcaster fans events out to a [Registry].
type Broadcaster struct {
	registry *Registry
	recorder Recorder
	logger   *slog.Logger
}

// NewBroadcaster builds a broadcaster over registry. recorder may be nil.
func NewBroadcaster(registry *Registry, recorder Recorder, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, recorder: recorder, logger: logger}
}

/*
Broadcast sends event to every open connection except exclude.

Description: The event is encoded once and the same bytes are queued on each
peer of a registry snapshot. Sends never block, so calls issued in order by
one goroutine reach each peer in that order. A failed send is counted and
skipped.

Parameters:
  - event: Event
  - exclude: Peer (nil to reach everyone)

Returns:
  - int: Number of peers the frame was queued on
*/
func (broadcaster *Broadcaster) Broadcast(event Event, exclude Peer) int {
	frame, err := json.Marshal(event)
	if err != nil {
		broadcaster.logger.Error("live_encode_failed",
			slog.String("type", event.Type),
			slog.Any("error", err),
		)
		return 0
	}

	delivered, dropped := 0, 0
	for _, peer := range broadcaster.registry.Snapshot() {
		if peer == exclude {
			continue
		}
		if peer.Send(frame) {
			delivered++
		} else {
			dropped++
		}
	}

	if dropped > 0 {
		broadcaster.logger.Warn("live_frames_dropped",
			slog.String("type", event.Type),
			slog.Int("dropped", dropped),
		)
	}
	if broadcaster.recorder != nil {
		broadcaster.recorder.RecordBroadcast(event.Type, dropped)
	}
	return delivered
}

// Publish broadcasts a typed payload to everyone. It is what resource
// services call after their write has committed.
func (broadcaster *Broadcaster) Publish(ctx context.Context, eventType string, payload any) {
	delivered := broadcaster.Broadcast(Event{Type: eventType, Payload: payload}, nil)
	ctxutil.GetLogger(ctx).DebugContext(ctx, "live_event_published",
		slog.String("type", eventType),
		slog.Int("delivered", delivered),
	)
}
