package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	domsel "github.com/autorovers/autorovers/internal/domain/selection"
	"github.com/autorovers/autorovers/internal/logger"
)

// EventSelection names selection snapshots in the event stream.
const EventSelection = "selection"

// StreamSelectionEvents handles GET /compare/events. It sends the current
// selection, then a snapshot after every change from any process, until the
// client goes away. Bursts are coalesced to the latest snapshot.
func (s *Server) StreamSelectionEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := SessionFromContext(ctx)
	log := logger.FromContextOr(ctx, s.logger)

	rc := http.NewResponseController(w)
	// long-lived response; the server write timeout would cut it
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("Write deadline not adjustable for event stream", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	updates := make(chan domsel.State, 1)
	unsubscribe := s.selection.Subscribe(owner, func(st domsel.State) {
		for {
			select {
			case updates <- st:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.WriteHeader(http.StatusOK)
	if err := writeEvent(w, EventSelection, selectionToResponse(s.selection.Load(ctx, owner), domsel.ReasonNone)); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Error("Event stream not supported by response writer", zap.Error(err))
		return
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case st := <-updates:
			if err := writeEvent(w, EventSelection, selectionToResponse(st, domsel.ReasonNone)); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
