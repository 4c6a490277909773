package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/semaphore"

	"github.com/lakshmanachimata/legal-mcp-platform/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket accepts protocol envelopes, one per message, and writes
// one response envelope for each. Up to WebSocketMaxInFlight calls run
// concurrently, each bounded by RequestTimeout; responses are matched to
// requests by id.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
		sem     = semaphore.NewWeighted(int64(s.cfg.WebSocketMaxInFlight))
	)
	send := func(resp protocol.Response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			s.log.Warn("websocket write", "error", err)
		}
	}
	defer wg.Wait()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", "error", err)
			}
			return
		}

		var req protocol.Request
		if err := json.Unmarshal(msg, &req); err != nil {
			send(protocol.Response{Error: &protocol.Error{Code: protocol.CodeInvalidRequest, Message: "invalid message format"}})
			continue
		}
		if req.Method == "" {
			send(protocol.Response{ID: req.ID, Error: &protocol.Error{Code: protocol.CodeInvalidRequest, Message: "method is required"}})
			continue
		}

		// Blocks reading until a slot frees up.
		if err := sem.Acquire(r.Context(), 1); err != nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
			defer cancel()
			result, err := s.dispatcher.Dispatch(ctx, req.Method, req.Params)
			if err != nil {
				send(protocol.Response{ID: req.ID, Error: protocol.NewError(err)})
				return
			}
			send(protocol.Response{ID: req.ID, Result: result})
		}()
	}
}
