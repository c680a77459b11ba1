// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ipc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ManuGH/syncd/internal/bus"
	"github.com/ManuGH/syncd/internal/log"
	"github.com/ManuGH/syncd/internal/model"
)

// eventTopics lists every topic the orchestrator publishes to: Publish is
// keyed by string(ev.Kind) (see orchestrator.publish), so an SSE client that
// wants the full event surface from spec.md §6 subscribes to each kind.
var eventTopics = []string{
	string(model.EventSyncStatus),
	string(model.EventProfileChanged),
	string(model.EventResultsAvailable),
	string(model.EventTransferProgress),
	string(model.EventBackupInProgress),
	string(model.EventBackupDone),
	string(model.EventRestoreInProgress),
	string(model.EventRestoreDone),
	string(model.EventSyncedExternallyStatus),
	string(model.EventStatusChanged),
}

// handleEvents implements GET /events: a Server-Sent-Events stream of the
// daemon's event surface (syncStatus, profileChanged, resultsAvailable,
// transferProgress, backup/restore, syncedExternallyStatus, statusChanged),
// the HTTP stand-in for spec.md §6's D-Bus signal surface.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errSSEUnsupported)
		return
	}

	ctx := r.Context()
	subs := make([]bus.Subscriber, 0, len(eventTopics))
	merged := make(chan bus.Event, 64)
	for _, topic := range eventTopics {
		sub, err := s.bus.Subscribe(ctx, topic)
		if err != nil {
			for _, prior := range subs {
				_ = prior.Close()
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		subs = append(subs, sub)
		go fanIn(ctx, sub.C(), merged)
	}
	defer func() {
		for _, sub := range subs {
			_ = sub.Close()
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger := log.WithComponent("ipc-sse")
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-merged:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to marshal event for SSE")
				continue
			}
			if _, err := w.Write([]byte("event: " + string(ev.Kind) + "\ndata: ")); err != nil {
				return
			}
			if _, err := w.Write(data); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func fanIn(ctx context.Context, in <-chan bus.Event, out chan<- bus.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-in:
			if !open {
				return
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

type sseError string

func (e sseError) Error() string { return string(e) }

const errSSEUnsupported = sseError("streaming unsupported by response writer")
