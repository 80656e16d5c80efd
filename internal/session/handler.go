//go:build !js

package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
)

const maxBodySize = 4 << 20

type Handler struct {
	registry *Registry
	hub      *Hub
	origins  []string
	sample   bool
	logger   *slog.Logger
}

// NewHandler serves the session API. When sample is set, new sessions
// start with the sample document.
func NewHandler(registry *Registry, hub *Hub, origins []string, sample bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, hub: hub, origins: origins, sample: sample, logger: logger}
}

// Routes registers the handler on r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/api/sessions", h.Create).Methods("POST")
	r.HandleFunc("/api/sessions", h.List).Methods("GET")
	r.HandleFunc("/api/sessions/{sessionId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/api/sessions/{sessionId}/items", h.Items).Methods("GET")
	r.HandleFunc("/api/sessions/{sessionId}/ops", h.Ops).Methods("POST")
	r.HandleFunc("/api/sessions/{sessionId}/scene", h.Scene).Methods("GET")
	r.HandleFunc("/ws/session/{sessionId}", h.WebSocket)
}

type createRequest struct {
	Sample *bool `json:"sample"`
}

type createResponse struct {
	ID string `json:"id"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sess := h.registry.Create()
	sample := h.sample
	if req.Sample != nil {
		sample = *req.Sample
	}
	if sample {
		if err := sess.LoadSample(); err != nil {
			h.logger.Error("load sample failed", "session", sess.ID, "error", err)
			h.registry.Remove(sess.ID)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
	}
	writeJSON(w, http.StatusCreated, createResponse{ID: sess.ID})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": h.registry.IDs()})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	if !h.registry.Remove(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	h.hub.Evict(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// Ops applies a single operation or a JSON array of operations in order
// and answers with the matching result or results.
func (h *Handler) Ops(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request too large"})
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var ops []Operation
		if err := json.Unmarshal(body, &ops); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		results := make([]Result, len(ops))
		for i, op := range ops {
			results[i] = sess.Apply(op)
		}
		writeJSON(w, http.StatusOK, results)
		return
	}

	var op Operation
	if err := json.Unmarshal(body, &op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res := sess.Apply(op)
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (h *Handler) Scene(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Scene())
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Error("websocket accept", "error", err)
		return
	}
	h.hub.Serve(r.Context(), conn, sess)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := mux.Vars(r)["sessionId"]
	sess, ok := h.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return sess, ok
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
