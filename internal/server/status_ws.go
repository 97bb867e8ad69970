package server

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/TheRemi120/runcoach/internal/pipeline"
)

// transitionEvent is one pipeline state change pushed to a websocket client.
type transitionEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// handleReviewEvents upgrades to a websocket and streams pipeline state
// transitions until the client disconnects. Events produced while the client
// is slow are dropped rather than blocking the pipeline.
func (s *Server) handleReviewEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	events := make(chan transitionEvent, 16)
	unsubscribe := s.orchestrator.Subscribe(func(tr pipeline.Transition) {
		select {
		case events <- transitionEvent{From: string(tr.From), To: string(tr.To)}:
		default:
		}
	})
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "done")
			return
		case ev := <-events:
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}
