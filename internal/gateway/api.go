// ABOUTME: HTTP API handlers for agent chat, streaming via SSE, and sessions
// ABOUTME: Provides /api/agents, /api/chat, /api/chat/stream, /api/sessions

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/troupehq/troupe-gateway/internal/engine"
)

// ChatRequest is the JSON request body for POST /api/chat and /api/chat/stream.
type ChatRequest struct {
	AgentName string        `json:"agent_name"`
	Message   string        `json:"message"`
	History   []engine.Turn `json:"history,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

// ChatResponse is the JSON response for POST /api/chat.
type ChatResponse struct {
	Response  string        `json:"response"`
	Agent     string        `json:"agent"`
	SessionID string        `json:"session_id"`
	History   []engine.Turn `json:"history"`
}

// ListAgentsResponse is the JSON response for GET /api/agents.
type ListAgentsResponse struct {
	Agents map[string]string `json:"agents"`
}

// SessionResponse is the JSON response for GET /api/sessions/{id}.
type SessionResponse struct {
	SessionID   string        `json:"session_id"`
	ActiveAgent string        `json:"active_agent,omitempty"`
	History     []engine.Turn `json:"history"`
}

// handleListAgents handles GET /api/agents requests.
// It returns the available agent names with their descriptions.
func (g *Gateway) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ListAgentsResponse{Agents: g.registry.List()})
}

// handleChat handles POST /api/chat requests.
// It runs the requested agent to completion and returns the final response
// along with the updated transcript. The session is only updated after a
// successful run.
func (g *Gateway) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseChatRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := g.sessions.GetOrCreate(req.SessionID)
	input := buildInput(req, sess.History)

	start := time.Now()
	result, err := g.runner.RunSync(r.Context(), req.AgentName, input)
	if err != nil {
		g.logger.Error("chat run failed", "agent", req.AgentName, "session_id", sess.ID, "error", err)
		g.metrics.observeChat(req.AgentName, "error", time.Since(start))
		g.sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	g.metrics.observeChat(result.AgentName, "ok", time.Since(start))

	g.sessions.Update(sess.ID, result.Transcript, result.AgentName)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ChatResponse{
		Response:  result.ResponseText(),
		Agent:     result.AgentName,
		SessionID: sess.ID,
		History:   result.Transcript,
	})
}

// handleChatStream handles POST /api/chat/stream requests.
// It streams the run over SSE: a session event first, then a delta event per
// text fragment, then exactly one done or error event. The session is only
// updated after a successful run.
func (g *Gateway) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	req, err := parseChatRequest(r.Body)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Check streaming support before sending (fail fast)
	flusher, ok := w.(http.Flusher)
	if !ok {
		g.logger.Error("streaming not supported")
		g.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sess := g.sessions.GetOrCreate(req.SessionID)
	input := buildInput(req, sess.History)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// The session event always comes first, even when the run fails.
	g.writeSSEEvent(w, map[string]string{"type": "session", "session_id": sess.ID})
	flusher.Flush()

	start := time.Now()
	stream, err := g.runner.RunStreaming(r.Context(), req.AgentName, input)
	if err != nil {
		g.logger.Error("stream start failed", "agent", req.AgentName, "session_id", sess.ID, "error", err)
		g.metrics.observeStream(req.AgentName, "error", time.Since(start))
		g.writeSSEEvent(w, map[string]string{"type": "error", "message": err.Error()})
		flusher.Flush()
		return
	}

	if !g.streamDeltas(r, w, flusher, stream) {
		return
	}

	result, err := stream.Wait()
	if err != nil {
		g.logger.Error("stream run failed", "agent", req.AgentName, "session_id", sess.ID, "error", err)
		g.metrics.observeStream(req.AgentName, "error", time.Since(start))
		g.writeSSEEvent(w, map[string]string{"type": "error", "message": err.Error()})
		flusher.Flush()
		return
	}
	g.metrics.observeStream(result.AgentName, "ok", time.Since(start))

	g.sessions.Update(sess.ID, result.Transcript, result.AgentName)

	g.writeSSEEvent(w, map[string]string{"type": "done", "agent": result.AgentName})
	flusher.Flush()
}

// streamDeltas forwards delta events until the stream closes. It reports
// false when the client went away, in which case the remaining deltas are
// drained so the producer is not blocked.
func (g *Gateway) streamDeltas(r *http.Request, w http.ResponseWriter, flusher http.Flusher, stream *engine.Stream) bool {
	for {
		select {
		case <-r.Context().Done():
			go func() {
				for range stream.Deltas() {
				}
			}()
			return false

		case delta, ok := <-stream.Deltas():
			if !ok {
				return true
			}
			g.metrics.deltasTotal.Inc()
			g.writeSSEEvent(w, map[string]string{"type": "delta", "content": delta})
			flusher.Flush()
		}
	}
}

// handleSessionRoutes dispatches /api/sessions/{id} by method:
// DELETE clears the session, GET returns its stored transcript.
func (g *Gateway) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id = strings.TrimSuffix(id, "/")
	if id == "" || strings.Contains(id, "/") {
		g.sendJSONError(w, http.StatusNotFound, "Session not found")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		g.handleDeleteSession(w, id)
	case http.MethodGet:
		g.handleGetSession(w, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleDeleteSession clears a session's stored state.
func (g *Gateway) handleDeleteSession(w http.ResponseWriter, id string) {
	if !g.sessions.Delete(id) {
		g.sendJSONError(w, http.StatusNotFound, "Session not found")
		return
	}
	g.logger.Info("session cleared", "session_id", id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

// handleGetSession returns a session's stored transcript.
func (g *Gateway) handleGetSession(w http.ResponseWriter, id string) {
	sess, ok := g.sessions.Get(id)
	if !ok {
		g.sendJSONError(w, http.StatusNotFound, "Session not found")
		return
	}
	history := sess.History
	if history == nil {
		history = []engine.Turn{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(SessionResponse{
		SessionID:   sess.ID,
		ActiveAgent: sess.ActiveAgent,
		History:     history,
	})
}

// buildInput assembles the engine input: the request history when supplied,
// otherwise the stored session history, plus the new user turn.
func buildInput(req *ChatRequest, stored []engine.Turn) []engine.Turn {
	base := stored
	if len(req.History) > 0 {
		base = req.History
	}
	input := make([]engine.Turn, 0, len(base)+1)
	input = append(input, base...)
	input = append(input, engine.UserTurn(req.Message))
	return input
}

// writeSSEEvent writes a single SSE data record to the response writer.
func (g *Gateway) writeSSEEvent(w http.ResponseWriter, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		g.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	_, _ = fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": message})
}

// parseChatRequest parses and validates a ChatRequest from the given reader.
// Returns an error if the JSON is invalid or the message is missing.
func parseChatRequest(r io.Reader) (*ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}

	if req.Message == "" {
		return nil, errors.New("message is required")
	}

	return &req, nil
}
